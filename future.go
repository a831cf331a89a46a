package bdispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
)

// Future is the eventual outcome of an operation. It completes exactly once, later completions are ignored.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	res       Result
	err       error
	callbacks []func(Result, error)
}

// NewFuture returns a future that is completed by calling [Future.Complete].
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns a future that already completed with 'res'. A nil result means no content.
func Completed(res Result) *Future {
	f := NewFuture()
	f.Complete(res, nil)

	return f
}

// Failed returns a future that already failed with 'err'.
func Failed(err error) *Future {
	f := NewFuture()
	f.Complete(nil, err)

	return f
}

// Go runs 'fn' on 'exec' and returns a future for its outcome. A panic in 'fn' fails the future.
func Go(ctx context.Context, exec Executor, fn func(context.Context) (Result, error)) *Future {
	f := NewFuture()
	if exec == nil {
		exec = GoExecutor()
	}

	exec.Execute(func() {
		defer func() {
			if v := recover(); v != nil {
				f.Complete(nil, panicError(v))
			}
		}()

		f.Complete(fn(ctx))
	})

	return f
}

// Complete completes the future. It returns false if the future was already complete.
func (f *Future) Complete(res Result, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}

	f.completed, f.res, f.err = true, res, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(res, err)
	}

	return true
}

// OnComplete registers a continuation. It runs on the goroutine that completes the future or, if the future is
// already complete, right away on the calling goroutine.
func (f *Future) OnComplete(fn func(Result, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()

		return
	}

	res, err := f.res, f.err
	f.mu.Unlock()
	fn(res, err)
}

// Done is closed when the future completes.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the future completes or 'ctx' is done.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()

		return f.res, f.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "await future")
	}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return errors.Wrap(err, "panic")
	}

	return errors.Newf("panic: %s", fmt.Sprint(v))
}
