package bdispatch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor decides where an operation runs.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc allows casting a function to implement [Executor].
type ExecutorFunc func(task func())

// Execute implements [Executor].
func (f ExecutorFunc) Execute(task func()) { f(task) }

// InlineExecutor runs tasks on the calling goroutine.
func InlineExecutor() Executor {
	return ExecutorFunc(func(task func()) { task() })
}

// GoExecutor runs every task on a new goroutine.
func GoExecutor() Executor {
	return ExecutorFunc(func(task func()) { go task() })
}

// LimitedExecutor runs tasks on new goroutines with at most 'n' of them running at the same time. Tasks
// that exceed the limit wait for a slot on their own goroutine, Execute never blocks.
type LimitedExecutor struct {
	sem *semaphore.Weighted
}

// NewLimitedExecutor inits a [LimitedExecutor].
func NewLimitedExecutor(n int64) *LimitedExecutor {
	return &LimitedExecutor{sem: semaphore.NewWeighted(n)}
}

// Execute implements [Executor].
func (e *LimitedExecutor) Execute(task func()) {
	go func() {
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer e.sem.Release(1)

		task()
	}()
}
