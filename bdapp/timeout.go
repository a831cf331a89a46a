package bdapp

import (
	"context"
	"net/http"
	"time"
)

// Every exchange has to be committed before its request context ends, otherwise the dispatcher abandons
// it with a 503. Timeouts therefore come in two tiers:
//
//  1. Server timeouts are based on BD_REQUEST_TIMEOUT. They bound reading the request and writing the
//     response and close stalled connections.
//  2. Each request context gets a deadline: BD_REQUEST_TIMEOUT minus a buffer, or the Lambda invocation
//     deadline minus the buffer when that is earlier. The buffer leaves time to write the 503.

// DefaultDeadlineBuffer is the default time reserved before a deadline for writing the response.
const DefaultDeadlineBuffer = 500 * time.Millisecond

// TimeoutConfig holds timeout configuration for the HTTP server.
type TimeoutConfig struct {
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration
	// DeadlineBuffer is subtracted from request deadlines. Defaults to DefaultDeadlineBuffer.
	DeadlineBuffer time.Duration
}

func (tc TimeoutConfig) buffer() time.Duration {
	if tc.DeadlineBuffer <= 0 {
		return DefaultDeadlineBuffer
	}

	return tc.DeadlineBuffer
}

// ServerTimeouts returns the http.Server timeout values.
func (tc TimeoutConfig) ServerTimeouts() (readHeaderTimeout, readTimeout, writeTimeout, idleTimeout time.Duration) {
	timeout := tc.RequestTimeout
	readHeaderTimeout = min(timeout, 5*time.Second)

	return readHeaderTimeout, timeout, timeout, timeout
}

// Deadline returns the deadline of a request that starts at 'now'.
func (tc TimeoutConfig) Deadline(now time.Time, lwa *LWAContext) time.Time {
	timeout := tc.RequestTimeout - tc.buffer()
	if timeout <= 0 {
		timeout = tc.RequestTimeout
	}

	deadline := now.Add(timeout)
	if lwa != nil {
		if ld := lwa.DeadlineTime(); !ld.IsZero() && ld.Add(-tc.buffer()).Before(deadline) {
			deadline = ld.Add(-tc.buffer())
		}
	}

	return deadline
}

// WithRequestDeadline returns middleware that sets the context deadline of every request. It must wrap
// the handler after the Lambda context is parsed.
func WithRequestDeadline(tc TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithDeadline(r.Context(), tc.Deadline(time.Now(), LWA(r.Context())))
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestRemainingTime returns the duration until the request context deadline.
// Returns 0 if no deadline is set or if the deadline has passed.
func RequestRemainingTime(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}

	return max(time.Until(deadline), 0)
}
