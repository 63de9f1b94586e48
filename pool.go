package threadpool

import (
	"log/slog"
	"sync"

	"github.com/ygrebnov/threadpool/slots"
)

// Pool executes submitted tasks on a variable number of worker goroutines.
//
// The pool starts with MinWorkers workers, spawns more (up to MaxWorkers) when a task
// is enqueued and no worker is idle, and lets idle workers above MinWorkers retire.
// Pending tasks wait in a bounded FIFO queue; submitters block while it is full.
// Methods are safe for concurrent use.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	config *config
	logger *slog.Logger
	inst   instruments

	// mu guards state. taskReady and spaceReady share it.
	mu    sync.Mutex
	state poolState

	// taskReady: queue non-empty or terminated. Workers wait on it.
	taskReady *sync.Cond
	// spaceReady: queue has room or terminated. Submitters wait on it.
	spaceReady *sync.Cond

	// lc runs terminate, join and reset once for Close.
	lc *lifecycleCoordinator
}

// poolState is the shared mutable state of a Pool. Every field is accessed with Pool.mu held.
type poolState struct {
	terminated  bool
	numWorkers  int
	freeWorkers int
	slots       *slots.Table
	queue       *queue

	// seq is the index assigned to the next enqueued task.
	seq uint64
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Pool and spawns minWorkers workers before returning.
//
// It fails with ErrInvalidConfig if maxWorkers is zero, if minWorkers exceeds maxWorkers,
// if maxQueueSize is zero, or if an option is invalid. No goroutine is started on failure.
func New(minWorkers, maxWorkers, maxQueueSize uint, opts ...Option) (*Pool, error) {
	cfg := defaultConfig(minWorkers, maxWorkers, maxQueueSize)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	p := &Pool{
		config: &cfg,
		logger: cfg.Logger,
		inst:   newInstruments(cfg.Metrics),
		state: poolState{
			slots: slots.New(cfg.MaxWorkers),
			queue: newQueue(cfg.MaxQueueSize),
		},
	}
	p.taskReady = sync.NewCond(&p.mu)
	p.spaceReady = sync.NewCond(&p.mu)
	p.lc = newLifecycleCoordinator(p.Terminate, p.joinWorkers, p.resetWorkers)

	p.mu.Lock()
	for range cfg.MinWorkers {
		p.spawnLocked()
	}
	p.mu.Unlock()

	p.logger.Debug("pool created",
		"min_workers", cfg.MinWorkers, "max_workers", cfg.MaxWorkers, "max_queue_size", cfg.MaxQueueSize)

	return p, nil
}

// spawnLocked starts a worker in the lowest free slot. p.mu must be held.
func (p *Pool) spawnLocked() {
	id, h, ok := p.state.slots.Acquire()
	if !ok {
		return
	}
	p.state.numWorkers++

	w := newWorker(id, p, h)
	go w.run()

	p.inst.spawned.Add(1)
	p.inst.workers.Add(1)
	p.logger.Debug("worker spawned", "slot", id, "workers", p.state.numWorkers)
}

// Terminate stops the pool from accepting tasks and wakes every waiting worker and submitter.
//
// Semantics:
// - Idempotent and safe for concurrent use.
// - Does not wait for workers; Close does.
// - Queued tasks are not drained: idle workers exit instead of dequeuing them,
//   and their futures are never fulfilled. Tasks already running complete normally.
// - Submitters blocked on a full queue return ErrPoolTerminated.
func (p *Pool) Terminate() {
	p.mu.Lock()
	if p.state.terminated {
		p.mu.Unlock()
		return
	}
	p.state.terminated = true
	abandoned := p.state.queue.len()
	p.taskReady.Broadcast()
	p.spaceReady.Broadcast()
	p.mu.Unlock()

	p.logger.Info("pool terminated", "abandoned_tasks", abandoned)
}

// Terminated reports whether Terminate has been called.
func (p *Pool) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.terminated
}

// Close terminates the pool and waits for every worker goroutine to exit,
// including workers that were retiring. It is idempotent and safe for concurrent use;
// concurrent callers all return after the workers are gone.
func (p *Pool) Close() {
	p.lc.Close()
}

// joinWorkers waits for every goroutine that ever occupied a slot.
// Called after Terminate, so no new slot handle can appear.
func (p *Pool) joinWorkers() {
	p.mu.Lock()
	handles := p.state.slots.Handles()
	p.mu.Unlock()

	for _, h := range handles {
		h.Wait()
	}
}

// resetWorkers reconciles bookkeeping that terminated workers skip on exit.
func (p *Pool) resetWorkers() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := 0; id < p.state.slots.Len(); id++ {
		p.state.slots.Release(id)
	}
	p.inst.workers.Add(-int64(p.state.numWorkers))
	p.state.numWorkers = 0
	p.state.freeWorkers = 0

	p.logger.Debug("pool closed")
}
