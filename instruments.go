package threadpool

import "github.com/ygrebnov/threadpool/metrics"

// instruments groups the metrics recorded by a Pool.
type instruments struct {
	submitted metrics.Counter
	rejected  metrics.Counter
	completed metrics.Counter
	failed    metrics.Counter
	panicked  metrics.Counter
	spawned   metrics.Counter
	retired   metrics.Counter

	workers metrics.UpDownCounter
	queued  metrics.UpDownCounter

	taskDuration metrics.Histogram
	submitWait   metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	counter := func(name string) metrics.Counter {
		i, _ := metrics.Lookup(name)
		return p.Counter(name, i.Options()...)
	}
	upDown := func(name string) metrics.UpDownCounter {
		i, _ := metrics.Lookup(name)
		return p.UpDownCounter(name, i.Options()...)
	}
	histogram := func(name string) metrics.Histogram {
		i, _ := metrics.Lookup(name)
		return p.Histogram(name, i.Options()...)
	}

	return instruments{
		submitted:    counter(metrics.TasksSubmitted),
		rejected:     counter(metrics.TasksRejected),
		completed:    counter(metrics.TasksCompleted),
		failed:       counter(metrics.TasksFailed),
		panicked:     counter(metrics.TasksPanicked),
		spawned:      counter(metrics.WorkersSpawned),
		retired:      counter(metrics.WorkersRetired),
		workers:      upDown(metrics.Workers),
		queued:       upDown(metrics.QueueLength),
		taskDuration: histogram(metrics.TaskDuration),
		submitWait:   histogram(metrics.SubmitWait),
	}
}
