package threadpool

import (
	"context"
	"fmt"
)

// Task is the canonical unit of work accepted by Submit.
// It receives the context passed to SubmitContext and returns a result of type R and an error.
// Use TaskFunc / TaskValue / TaskError / Bind / Bind2 to adapt common function signatures.
//
// Example:
//
//	t := TaskFunc(func(ctx context.Context) (int, error) { return 42, nil })
//	_ = t
type Task[R any] func(context.Context) (R, error)

// TaskFunc adapts func(ctx) (R, error) to Task[R].
func TaskFunc[R any](fn func(context.Context) (R, error)) Task[R] { return Task[R](fn) }

// TaskValue adapts func(ctx) R to Task[R].
func TaskValue[R any](fn func(context.Context) R) Task[R] {
	return func(ctx context.Context) (R, error) { return fn(ctx), nil }
}

// TaskError adapts func(ctx) error to Task[R].
// The returned Task yields the zero value of R alongside the error.
func TaskError[R any](fn func(context.Context) error) Task[R] {
	return func(ctx context.Context) (R, error) { var zero R; return zero, fn(ctx) }
}

// Bind captures a by value at call time and returns a Task invoking fn(a).
func Bind[A, R any](fn func(A) R, a A) Task[R] {
	return func(context.Context) (R, error) { return fn(a), nil }
}

// Bind2 captures a and b by value at call time and returns a Task invoking fn(a, b).
func Bind2[A, B, R any](fn func(A, B) R, a A, b B) Task[R] {
	return func(context.Context) (R, error) { return fn(a, b), nil }
}

// execTask runs t on the calling goroutine and converts a panic into an error
// wrapping ErrTaskPanicked.
func execTask[R any](ctx context.Context, t Task[R]) (result R, err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			var zero R
			result = zero
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, ePanic)
		}
	}()

	return t(ctx)
}

// job is the type-erased queue entry. run executes the task and fulfills its future;
// it never panics.
type job struct {
	run func()
}
