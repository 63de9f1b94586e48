package threadpool

import (
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence of a Pool.
// It is a wiring helper: it doesn't own state; it orchestrates termination,
// joining and bookkeeping in a deterministic order.
//
// Close() is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	terminate func()
	join      func()
	reset     func()

	once sync.Once
}

func newLifecycleCoordinator(terminate, join, reset func()) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		terminate: terminate,
		join:      join,
		reset:     reset,
	}
}

// Close executes the shutdown sequence exactly once:
// 1) terminate: stop intake, wake workers and blocked submitters
// 2) join every worker goroutine
// 3) reset worker bookkeeping skipped by terminated workers
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		if lc.terminate != nil {
			lc.terminate()
		}
		if lc.join != nil {
			lc.join()
		}
		if lc.reset != nil {
			lc.reset()
		}
	})
}
