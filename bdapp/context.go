package bdapp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/advdv/bdispatch"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxKeyRequestDep ctxKey = iota
	ctxKeyLWAContext
)

// HeaderLambdaContext is set by the Lambda Web Adapter on every request it forwards.
const HeaderLambdaContext = "X-Amzn-Lambda-Context"

// requestDep holds request-scoped dependencies available via context. App-scoped dependencies are
// accessed via Runtime instead.
type requestDep struct {
	logger *zap.Logger
}

// LWAContext contains Lambda execution context from the x-amzn-lambda-context header.
type LWAContext struct {
	RequestID          string       `json:"request_id"`
	Deadline           int64        `json:"deadline"`
	InvokedFunctionARN string       `json:"invoked_function_arn"`
	XRayTraceID        string       `json:"xray_trace_id"`
	EnvConfig          LWAEnvConfig `json:"env_config"`
}

// LWAEnvConfig contains Lambda function environment configuration.
type LWAEnvConfig struct {
	FunctionName string `json:"function_name"`
	Memory       int    `json:"memory"`
	Version      string `json:"version"`
	LogGroup     string `json:"log_group"`
	LogStream    string `json:"log_stream"`
}

// DeadlineTime returns the Lambda invocation deadline as a time.Time.
func (lc *LWAContext) DeadlineTime() time.Time {
	if lc.Deadline == 0 {
		return time.Time{}
	}

	return time.UnixMilli(lc.Deadline)
}

// withRequestDep injects the request scoped logger into the request context. Requests without an id get
// one, so the logger and the dispatcher report the same id.
func withRequestDep(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(bdispatch.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(bdispatch.HeaderRequestID, id)
			}

			logs := logger.With(zap.String("request_id", id))
			ctx := context.WithValue(r.Context(), ctxKeyRequestDep, &requestDep{logger: logs})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withLWAContext parses the x-amzn-lambda-context header from the Lambda Web Adapter. Malformed headers
// are ignored.
func withLWAContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get(HeaderLambdaContext); header != "" {
				var lc LWAContext
				if err := json.Unmarshal([]byte(header), &lc); err == nil {
					r = r.WithContext(WithLWA(r.Context(), &lc))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithLWA returns a context that carries 'lc'.
func WithLWA(ctx context.Context, lc *LWAContext) context.Context {
	return context.WithValue(ctx, ctxKeyLWAContext, lc)
}

// LWA retrieves the LWAContext from the request context. Returns nil when not running behind the Lambda
// Web Adapter.
func LWA(ctx context.Context) *LWAContext {
	lc, _ := ctx.Value(ctxKeyLWAContext).(*LWAContext)
	return lc
}

// Log returns a trace-correlated zap logger from the context. Outside of a request it returns a no-op
// logger.
func Log(ctx context.Context) *zap.Logger {
	d, ok := ctx.Value(ctxKeyRequestDep).(*requestDep)
	if !ok {
		return zap.NewNop()
	}

	return d.logger.With(traceFields(ctx)...)
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
