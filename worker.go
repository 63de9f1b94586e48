package threadpool

import (
	"github.com/ygrebnov/threadpool/slots"
)

// worker is one goroutine of the pool, bound to a slot for its whole lifetime.
//
// State machine, evaluated each time the worker holds the pool lock:
//
//	idle -> retiring (queue empty, more than MinWorkers alive) -> exited
//	idle -> waiting -> terminated                               -> exited
//	idle -> waiting -> running (task dequeued, lock released)   -> idle
type worker struct {
	id     int
	pool   *Pool
	handle *slots.Handle
}

func newWorker(id int, p *Pool, h *slots.Handle) *worker {
	return &worker{id: id, pool: p, handle: h}
}

func (w *worker) run() {
	defer w.handle.Exit()

	for {
		j, ok := w.next()
		if !ok {
			return
		}
		j.run()
	}
}

// next blocks until a job is available and returns it, or returns false when the
// worker must exit. The retire check happens before waiting, atomically with the
// queue inspection, so a worker never retires while a task sits in the queue.
func (w *worker) next() (*job, bool) {
	p := w.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.state

	if s.queue.empty() && s.numWorkers > int(p.config.MinWorkers) {
		s.slots.Release(w.id)
		s.numWorkers--
		p.inst.retired.Add(1)
		p.inst.workers.Add(-1)
		p.logger.Debug("worker retired", "slot", w.id, "workers", s.numWorkers)
		return nil, false
	}

	s.freeWorkers++
	for s.queue.empty() && !s.terminated {
		p.taskReady.Wait()
	}

	// Counters are left as they are: Close reconciles them.
	if s.terminated {
		p.logger.Debug("worker exited on termination", "slot", w.id)
		return nil, false
	}

	s.freeWorkers--
	j := s.queue.pop()
	p.inst.queued.Add(-1)
	p.spaceReady.Signal()
	return j, true
}
