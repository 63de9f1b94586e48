package threadpool

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Future is the reader half of a task result cell.
// It is fulfilled exactly once by the worker that executed the task.
// Futures of tasks still queued when the pool terminates are never fulfilled.
type Future[R any] struct {
	id    uuid.UUID
	index uint64

	done     chan struct{}
	value    R
	err      error
	consumed atomic.Bool
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{id: uuid.New(), done: make(chan struct{})}
}

// complete stores the outcome and releases readers. Called once, by the executing worker.
func (f *Future[R]) complete(value R, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Get blocks until the task has executed and returns its result.
// A failed task yields a *TaskFailure. The result is consumed once:
// later calls return ErrResultConsumed.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.take()
}

// GetContext is like Get but gives up when ctx is done, returning ctx.Err().
// Giving up does not consume the result.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.take()
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

func (f *Future[R]) take() (R, error) {
	if !f.consumed.CompareAndSwap(false, true) {
		var zero R
		return zero, ErrResultConsumed
	}
	return f.value, f.err
}

// Done returns a channel closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} { return f.done }

// ID returns the unique identifier assigned to the task at submission.
func (f *Future[R]) ID() uuid.UUID { return f.id }

// Index returns the task position in the pool's FIFO submission order.
func (f *Future[R]) Index() uint64 { return f.index }
