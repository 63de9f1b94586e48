package metrics

// NoopProvider discards every measurement. A pool built without WithMetrics uses it.
type NoopProvider struct{}

// NewNoopProvider returns a NoopProvider.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(string, ...InstrumentOption) Counter             { return discard{} }
func (NoopProvider) UpDownCounter(string, ...InstrumentOption) UpDownCounter { return discard{} }
func (NoopProvider) Histogram(string, ...InstrumentOption) Histogram         { return discard{} }

// discard satisfies all three instrument interfaces.
type discard struct{}

func (discard) Add(int64)      {}
func (discard) Record(float64) {}
