// Package metrics defines the instruments a pool records into.
//
// Catalog names every instrument: counters for submitted, rejected, completed,
// failed and panicked tasks and for spawned and retired workers, up/down counters
// for live workers and queue length, and histograms for task duration and submit
// wait time.
//
// NoopProvider is the default. BasicProvider keeps values in memory and returns them
// by name. The prometheus subpackage exports them to a Prometheus registry.
package metrics
