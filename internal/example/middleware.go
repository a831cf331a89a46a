// Package example implements example middleware in an outside package.
package example

import (
	"context"
	"time"

	"github.com/advdv/bdispatch"
	"go.uber.org/zap"
)

// ctxKey type scopes middleware values.
type ctxKey string

// Middleware provides an example for middleware that adds a logger to the context and logs how long the
// operation took to complete.
func Middleware(logs *zap.Logger) bdispatch.Middleware {
	return func(next bdispatch.OperationFunc) bdispatch.OperationFunc {
		return func(ctx context.Context, in *bdispatch.Input) (*bdispatch.Future, error) {
			logs := logs.With(zap.Bool("has_body", in.Body != nil))
			ctx = context.WithValue(ctx, ctxKey("zap"), logs)

			start := time.Now()
			fut, err := next(ctx, in)
			if err != nil {
				return nil, err
			}

			fut.OnComplete(func(_ bdispatch.Result, err error) {
				logs.Info("operation completed", zap.Duration("took", time.Since(start)), zap.Error(err))
			})

			return fut, nil
		}
	}
}

// Log returns the logger the middleware put in the context, or nil.
func Log(ctx context.Context) *zap.Logger {
	v, _ := ctx.Value(ctxKey("zap")).(*zap.Logger)

	return v
}
