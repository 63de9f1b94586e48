// Package prometheus exports pool metrics through github.com/prometheus/client_golang.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ygrebnov/threadpool/metrics"
)

// Provider implements metrics.Provider on top of a Prometheus registerer.
// Counters map to prometheus.Counter, up/down counters to prometheus.Gauge and
// histograms to prometheus.Histogram. Instruments are created once per name; a name
// already registered by another Provider on the same registerer is shared.
type Provider struct {
	registerer prometheus.Registerer
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Option configures a Provider.
type Option func(*Provider)

// WithBuckets sets histogram buckets (default: prometheus.DefBuckets).
func WithBuckets(buckets []float64) Option {
	return func(p *Provider) { p.buckets = buckets }
}

// NewProvider creates a Provider registering on registerer.
// A nil registerer selects prometheus.DefaultRegisterer.
func NewProvider(registerer prometheus.Registerer, opts ...Option) *Provider {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	p := &Provider{
		registerer: registerer,
		buckets:    prometheus.DefBuckets,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func help(name string, cfg metrics.InstrumentConfig) string {
	if cfg.Description != "" {
		return cfg.Description
	}
	return name
}

// register registers c, or returns the collector already registered under the same descriptor.
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Counter returns a monotonic counter for name.
func (p *Provider) Counter(name string, opts ...metrics.InstrumentOption) metrics.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.counters[name]; ok {
		return counter{c}
	}
	cfg := metrics.NewInstrumentConfig(opts...)
	c := register[prometheus.Counter](p.registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help(name, cfg),
	}))
	p.counters[name] = c
	return counter{c}
}

// UpDownCounter returns a gauge-backed up/down counter for name.
func (p *Provider) UpDownCounter(name string, opts ...metrics.InstrumentOption) metrics.UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.gauges[name]; ok {
		return gauge{g}
	}
	cfg := metrics.NewInstrumentConfig(opts...)
	g := register[prometheus.Gauge](p.registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help(name, cfg),
	}))
	p.gauges[name] = g
	return gauge{g}
}

// Histogram returns a histogram for name using the provider buckets.
func (p *Provider) Histogram(name string, opts ...metrics.InstrumentOption) metrics.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.histograms[name]; ok {
		return histogram{h}
	}
	cfg := metrics.NewInstrumentConfig(opts...)
	h := register[prometheus.Histogram](p.registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    help(name, cfg),
		Buckets: p.buckets,
	}))
	p.histograms[name] = h
	return histogram{h}
}

type counter struct{ c prometheus.Counter }

// Add ignores negative values; Prometheus counters only go up.
func (c counter) Add(n int64) {
	if n < 0 {
		return
	}
	c.c.Add(float64(n))
}

type gauge struct{ g prometheus.Gauge }

func (g gauge) Add(n int64) { g.g.Add(float64(n)) }

type histogram struct{ h prometheus.Histogram }

func (h histogram) Record(v float64) { h.h.Observe(v) }
