package bdispatch

import (
	"context"
)

// OperationFunc is the business function of an operation. It may fail right away by returning an error, or
// return a future that completes later, possibly on another goroutine. A nil future means no content.
type OperationFunc func(ctx context.Context, in *Input) (*Future, error)

// Sync turns a blocking function into an [OperationFunc] that runs on the goroutine that invokes it.
func Sync(fn func(ctx context.Context, in *Input) (Result, error)) OperationFunc {
	return func(ctx context.Context, in *Input) (*Future, error) {
		res, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}

		return Completed(res), nil
	}
}

// Async turns a blocking function into an [OperationFunc] that runs on 'exec'.
func Async(exec Executor, fn func(ctx context.Context, in *Input) (Result, error)) OperationFunc {
	return func(ctx context.Context, in *Input) (*Future, error) {
		return Go(ctx, exec, func(ctx context.Context) (Result, error) { return fn(ctx, in) }), nil
	}
}

// Typed adapts a function that takes the decoded typed body, url fields and query fields. Any of them is
// nil when nothing was decoded, use struct{} for the ones the operation does not declare.
func Typed[B, U, Q any](fn func(ctx context.Context, body *B, url *U, query *Q) (Result, error)) OperationFunc {
	return Sync(func(ctx context.Context, in *Input) (Result, error) {
		var body *B
		if in.Body != nil {
			body, _ = in.Body.Record().(*B)
		}

		url, _ := in.URL.(*U)
		query, _ := in.Query.(*Q)

		return fn(ctx, body, url, query)
	})
}
