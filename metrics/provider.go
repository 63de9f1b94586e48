package metrics

// Provider creates the instruments a pool records into. Instruments are looked up
// by name and a second request for the same name returns the same instrument.
// Implementations must be safe for concurrent use: workers and submitters record
// without holding the pool lock.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter only goes up (tasks submitted, workers spawned).
type Counter interface {
	Add(n int64)
}

// UpDownCounter tracks a level (live workers, queue length).
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records durations in seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig is the metadata attached to an instrument when it is created.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the help text of the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets the unit of the instrument ("1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// NewInstrumentConfig applies opts in order, skipping nil ones.
func NewInstrumentConfig(opts ...InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
