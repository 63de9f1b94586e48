package threadpool

import (
	"fmt"
	"strings"
)

// Status is a point-in-time snapshot of a Pool.
type Status struct {
	Terminated  bool
	MinWorkers  uint
	MaxWorkers  uint
	NumWorkers  int
	FreeWorkers int
	QueueLen    int
	QueueCap    int
	// Slots holds the active flag of every worker slot, indexed by slot.
	Slots []bool
}

// Status returns a consistent snapshot of the pool state. It has no side effects.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Status{
		Terminated:  p.state.terminated,
		MinWorkers:  p.config.MinWorkers,
		MaxWorkers:  p.config.MaxWorkers,
		NumWorkers:  p.state.numWorkers,
		FreeWorkers: p.state.freeWorkers,
		QueueLen:    p.state.queue.len(),
		QueueCap:    p.state.queue.cap(),
		Slots:       p.state.slots.Bitmap(),
	}
}

// String renders the snapshot as a multi-line report.
func (s Status) String() string {
	if s.Terminated {
		return "pool is terminated"
	}

	var b strings.Builder
	b.WriteString("=== pool status ===\n")
	fmt.Fprintf(&b, "min workers: %d\n", s.MinWorkers)
	fmt.Fprintf(&b, "max workers: %d\n", s.MaxWorkers)
	fmt.Fprintf(&b, "queue: %d/%d\n", s.QueueLen, s.QueueCap)
	fmt.Fprintf(&b, "num workers: %d\n", s.NumWorkers)
	fmt.Fprintf(&b, "free workers: %d\n", s.FreeWorkers)
	b.WriteString("slots:")
	for _, active := range s.Slots {
		if active {
			b.WriteString(" 1")
		} else {
			b.WriteString(" 0")
		}
	}
	b.WriteString("\n")
	return b.String()
}
