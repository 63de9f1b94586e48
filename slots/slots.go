// Package slots implements the fixed-capacity worker slot table used by the pool.
//
// Each entry pairs an active flag with the handle of the goroutine that owns the
// slot. Acquire always picks the lowest inactive index, so indices are reused
// deterministically once a worker retires. A Table is not safe for concurrent use;
// the owner serializes access with its own lock.
package slots

// Handle tracks the lifetime of the goroutine occupying a slot.
type Handle struct {
	done chan struct{}
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Exit marks the goroutine as finished. It must be called exactly once,
// as the last action of the goroutine.
func (h *Handle) Exit() { close(h.done) }

// Wait blocks until Exit has been called.
func (h *Handle) Wait() { <-h.done }

// Done returns a channel closed on Exit.
func (h *Handle) Done() <-chan struct{} { return h.done }

type entry struct {
	active bool
	handle *Handle
}

// Table is an index-addressed arena of worker slots.
type Table struct {
	entries []entry
	active  int
}

// New creates a Table with capacity inactive entries.
func New(capacity uint) *Table {
	return &Table{entries: make([]entry, capacity)}
}

// Acquire claims the lowest inactive slot and returns its index together with a
// fresh handle for the goroutine that will occupy it. A previous occupant of the
// slot is joined first; inactive implies it has already left its loop, so the join
// only waits for its final return.
// The last result is false when every slot is active.
func (t *Table) Acquire() (int, *Handle, bool) {
	for id := range t.entries {
		e := &t.entries[id]
		if e.active {
			continue
		}
		if e.handle != nil {
			e.handle.Wait()
		}
		e.handle = newHandle()
		e.active = true
		t.active++
		return id, e.handle, true
	}
	return -1, nil, false
}

// Release marks slot id inactive. The handle is kept so that the next Acquire
// of the same index, or Handles, can still join the goroutine.
func (t *Table) Release(id int) {
	e := &t.entries[id]
	if !e.active {
		return
	}
	e.active = false
	t.active--
}

// Active reports whether slot id is occupied by a live worker.
func (t *Table) Active(id int) bool { return t.entries[id].active }

// Len returns the table capacity.
func (t *Table) Len() int { return len(t.entries) }

// ActiveCount returns the number of active slots.
func (t *Table) ActiveCount() int { return t.active }

// Bitmap returns a copy of the active flags, indexed by slot.
func (t *Table) Bitmap() []bool {
	out := make([]bool, len(t.entries))
	for id, e := range t.entries {
		out[id] = e.active
	}
	return out
}

// Handles returns every handle ever issued and not yet replaced,
// active or not. Used to join all goroutines on shutdown.
func (t *Table) Handles() []*Handle {
	out := make([]*Handle, 0, len(t.entries))
	for _, e := range t.entries {
		if e.handle != nil {
			out = append(out, e.handle)
		}
	}
	return out
}
