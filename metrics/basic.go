package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider keeps measurements in memory so tests and the CLI can read a pool's
// instruments back by name. Counters and up/down counters share one value type;
// histograms keep only their count and sum.
type BasicProvider struct {
	mu         sync.Mutex
	values     map[string]*value
	histograms map[string]*summary
}

// NewBasicProvider returns an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		values:     make(map[string]*value),
		histograms: make(map[string]*summary),
	}
}

func (p *BasicProvider) value(name string) *value {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[name]
	if !ok {
		v = &value{}
		p.values[name] = v
	}
	return v
}

func (p *BasicProvider) Counter(name string, _ ...InstrumentOption) Counter { return p.value(name) }

func (p *BasicProvider) UpDownCounter(name string, _ ...InstrumentOption) UpDownCounter {
	return p.value(name)
}

func (p *BasicProvider) Histogram(name string, _ ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = &summary{}
		p.histograms[name] = h
	}
	return h
}

// CounterValue returns the named counter, or 0 if it was never created.
func (p *BasicProvider) CounterValue(name string) int64 {
	p.mu.Lock()
	v, ok := p.values[name]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	return v.n.Load()
}

// UpDownValue returns the named up/down counter, or 0 if it was never created.
func (p *BasicProvider) UpDownValue(name string) int64 { return p.CounterValue(name) }

// Observations returns how many values the named histogram recorded and their sum.
func (p *BasicProvider) Observations(name string) (count int64, sum float64) {
	p.mu.Lock()
	h, ok := p.histograms[name]
	p.mu.Unlock()
	if !ok {
		return 0, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count, h.sum
}

type value struct{ n atomic.Int64 }

func (v *value) Add(n int64) { v.n.Add(n) }

type summary struct {
	mu    sync.Mutex
	count int64
	sum   float64
}

func (s *summary) Record(v float64) {
	s.mu.Lock()
	s.count++
	s.sum += v
	s.mu.Unlock()
}
