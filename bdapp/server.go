package bdapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/advdv/bdispatch"
	"github.com/advdv/bdispatch/openapi"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HealthCheck reports whether the service is ready. A non-nil error answers the readiness check with a
// 503.
type HealthCheck func(ctx context.Context) error

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Registry   *bdispatch.Registry
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
	Config     AppConfig
}

// Server serves the dispatcher of the registry. The registry is frozen when the server starts, so every
// route registered while the app is constructed is served.
type Server struct {
	params ServerParams
	http   *http.Server
	once   sync.Once
}

// NewServer creates the server. The timeouts are derived from BD_REQUEST_TIMEOUT.
func NewServer(params ServerParams) *Server {
	tc := TimeoutConfig{RequestTimeout: params.Env.requestTimeout()}
	readHeaderTimeout, readTimeout, writeTimeout, idleTimeout := tc.ServerTimeouts()

	return &Server{
		params: params,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", params.Env.port()),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ErrorLog:          zap.NewStdLog(params.Logger.Named("http")),
		},
	}
}

// Handler freezes the registry and returns the handler that serves it. It is built once.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() { s.http.Handler = s.build() })
	return s.http.Handler
}

func (s *Server) build() http.Handler {
	env, reg := s.params.Env, s.params.Registry

	healthPath := env.readinessCheckPath()
	check := s.params.Config.HealthCheck
	reg.Register(healthPath, nil).
		Get(nil, bdispatch.Sync(func(ctx context.Context, _ *bdispatch.Input) (bdispatch.Result, error) {
			if check != nil {
				if err := check(ctx); err != nil {
					return nil, bdispatch.NewError(bdispatch.CodeServiceUnavailable, err)
				}
			}

			return bdispatch.Bytes([]byte("ok"), "text/plain"), nil
		})).
		Comment("readiness check")

	if path := env.openAPIPath(); path != "" {
		openapi.Register(reg, path, openapi.Info{
			Title:   env.serviceName(),
			Version: env.serviceVersion(),
		})
	}

	var handler http.Handler = reg.Build()
	handler = WithRequestDeadline(TimeoutConfig{RequestTimeout: env.requestTimeout()})(handler)
	handler = withLWAContext()(handler)
	handler = withRequestDep(s.params.Logger)(handler)
	handler = withTracing(s.params.TracerProv, s.params.Propagator, env.serviceName(), healthPath)(handler)

	if env.enableH2C() {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	return handler
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start(context.Context) error {
	s.Handler()

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.http.Addr)
	}

	s.params.Logger.Info("starting server",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("h2c", s.params.Env.enableH2C()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.params.Logger.Error("server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.params.Logger.Info("stopping server")
	return s.http.Shutdown(ctx)
}

func startServerHook(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{OnStart: srv.Start, OnStop: srv.Stop})
}
