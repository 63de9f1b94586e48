package threadpool

import (
	"context"
	"errors"
	"time"
)

// Submit enqueues t and returns the Future that will hold its result.
// It is SubmitContext with context.Background(): it may block for an unbounded time
// while the queue is full.
func Submit[R any](p *Pool, t Task[R]) (*Future[R], error) {
	return SubmitContext(context.Background(), p, t)
}

// SubmitContext enqueues t and returns the Future that will hold its result.
//
// Semantics:
// - Safe for concurrent use by multiple goroutines.
// - Returns ErrInvalidTask for a nil task and ErrPoolTerminated if the pool is terminated;
//   nothing is enqueued in either case.
// - While the queue is full, blocks until a worker frees a slot, the pool is terminated
//   (ErrPoolTerminated) or ctx is done (ctx.Err()).
// - On enqueue, spawns a worker if none is idle and MaxWorkers is not reached, then wakes one idle worker.
// - ctx is passed to the task when it runs. The pool itself never cancels a queued or running task.
func SubmitContext[R any](ctx context.Context, p *Pool, t Task[R]) (*Future[R], error) {
	if t == nil {
		return nil, ErrInvalidTask
	}

	f := newFuture[R]()
	j := newJob(ctx, p, t, f)

	p.mu.Lock()

	if p.state.terminated {
		p.mu.Unlock()
		p.inst.rejected.Add(1)
		return nil, ErrPoolTerminated
	}

	if p.state.queue.full() {
		if err := p.waitForSpaceLocked(ctx); err != nil {
			p.mu.Unlock()
			if errors.Is(err, ErrPoolTerminated) {
				p.inst.rejected.Add(1)
			}
			return nil, err
		}
	}

	f.index = p.enqueueLocked(j)
	p.mu.Unlock()

	return f, nil
}

// TrySubmit attempts to enqueue t without blocking.
//
// Returns:
// - (future, true, nil) if the task was enqueued.
// - (nil, false, nil) if the queue is full.
// - (nil, false, ErrPoolTerminated) if the pool is terminated.
// - (nil, false, ErrInvalidTask) if t is nil.
func TrySubmit[R any](p *Pool, t Task[R]) (*Future[R], bool, error) {
	if t == nil {
		return nil, false, ErrInvalidTask
	}

	f := newFuture[R]()
	j := newJob(context.Background(), p, t, f)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state.terminated:
		p.inst.rejected.Add(1)
		return nil, false, ErrPoolTerminated
	case p.state.queue.full():
		return nil, false, nil
	}

	f.index = p.enqueueLocked(j)
	return f, true, nil
}

// waitForSpaceLocked blocks on spaceReady until the queue has room.
// p.mu must be held; it is held again on return.
func (p *Pool) waitForSpaceLocked(ctx context.Context) error {
	start := time.Now()
	defer func() { p.inst.submitWait.Record(time.Since(start).Seconds()) }()

	// A cond wait cannot select on ctx; wake all waiters when ctx ends so this one re-checks.
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.spaceReady.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	s := &p.state
	for s.queue.full() && !s.terminated && ctx.Err() == nil {
		p.spaceReady.Wait()
	}

	switch {
	case s.terminated:
		return ErrPoolTerminated
	case ctx.Err() != nil:
		// This waiter may have consumed a worker's single signal; pass it on.
		if !s.queue.full() {
			p.spaceReady.Signal()
		}
		return ctx.Err()
	}
	return nil
}

// enqueueLocked appends j, applies the spawn decision and wakes one worker.
// It returns the FIFO index assigned to j. p.mu must be held and the queue not full.
func (p *Pool) enqueueLocked(j *job) uint64 {
	s := &p.state

	idx := s.seq
	s.seq++
	s.queue.push(j)
	p.inst.submitted.Add(1)
	p.inst.queued.Add(1)

	if s.freeWorkers == 0 && s.numWorkers < int(p.config.MaxWorkers) {
		p.spawnLocked()
	}

	// An idle worker may take the task even if one was just spawned.
	p.taskReady.Signal()
	return idx
}

// newJob binds t and its future into a type-erased queue entry.
// The job records metrics and wraps failures into *TaskFailure before fulfilling f.
func newJob[R any](ctx context.Context, p *Pool, t Task[R], f *Future[R]) *job {
	return &job{run: func() {
		start := time.Now()
		v, err := execTask(ctx, t)
		p.inst.taskDuration.Record(time.Since(start).Seconds())

		if err != nil {
			p.inst.failed.Add(1)
			if errors.Is(err, ErrTaskPanicked) {
				p.inst.panicked.Add(1)
				p.logger.Warn("task panicked", "task_id", f.id, "task_index", f.index, "error", err)
			}
			err = newTaskFailure(err, f.id, f.index)
		} else {
			p.inst.completed.Add(1)
		}

		f.complete(v, err)
	}}
}
