package metrics

// Names of the instruments recorded by a pool.
const (
	TasksSubmitted = "threadpool_tasks_submitted_total"
	TasksRejected  = "threadpool_tasks_rejected_total"
	TasksCompleted = "threadpool_tasks_completed_total"
	TasksFailed    = "threadpool_tasks_failed_total"
	TasksPanicked  = "threadpool_tasks_panicked_total"
	WorkersSpawned = "threadpool_workers_spawned_total"
	WorkersRetired = "threadpool_workers_retired_total"

	Workers     = "threadpool_workers"
	QueueLength = "threadpool_queue_length"

	TaskDuration = "threadpool_task_duration_seconds"
	SubmitWait   = "threadpool_submit_wait_seconds"
)

// Kind is the instrument type of a catalog entry.
type Kind int

const (
	KindCounter Kind = iota
	KindUpDownCounter
	KindHistogram
)

// Instrument describes one entry of Catalog.
type Instrument struct {
	Name        string
	Kind        Kind
	Description string
	Unit        string
}

// Options returns the creation options of the instrument.
func (i Instrument) Options() []InstrumentOption {
	return []InstrumentOption{WithDescription(i.Description), WithUnit(i.Unit)}
}

// Catalog lists every instrument a pool creates, in creation order.
var Catalog = []Instrument{
	{TasksSubmitted, KindCounter, "Tasks accepted into the queue", "1"},
	{TasksRejected, KindCounter, "Submissions refused because the pool was terminated", "1"},
	{TasksCompleted, KindCounter, "Tasks that finished without error", "1"},
	{TasksFailed, KindCounter, "Tasks that returned an error or panicked", "1"},
	{TasksPanicked, KindCounter, "Tasks that panicked", "1"},
	{WorkersSpawned, KindCounter, "Worker goroutines started", "1"},
	{WorkersRetired, KindCounter, "Idle workers that retired above the minimum", "1"},
	{Workers, KindUpDownCounter, "Live worker goroutines", "1"},
	{QueueLength, KindUpDownCounter, "Tasks waiting in the queue", "1"},
	{TaskDuration, KindHistogram, "Task execution time", "seconds"},
	{SubmitWait, KindHistogram, "Time submitters spent blocked on a full queue", "seconds"},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Instrument, bool) {
	for _, i := range Catalog {
		if i.Name == name {
			return i, true
		}
	}
	return Instrument{}, false
}
