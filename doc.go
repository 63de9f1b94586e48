// Package threadpool provides a dynamically sized worker pool with a bounded task queue.
//
// Constructor
//   - New(minWorkers, maxWorkers, maxQueueSize, opts ...Option): validates sizes and
//     spawns minWorkers workers before returning.
//
// Sizing
// The pool grows lazily: a worker is spawned only when a task is enqueued, no worker
// is idle and fewer than maxWorkers are alive. It shrinks without a reaper: a worker
// that finds the queue empty while more than minWorkers are alive retires. Slots are
// numbered 0..maxWorkers-1 and the lowest free slot is always reused first.
//
// Submission
//   - Submit / SubmitContext: block while the queue is full (backpressure).
//   - TrySubmit: never blocks.
//
// Each submission returns a Future. Future.Get blocks until the task has run and
// returns its value or a *TaskFailure wrapping the task error (or ErrTaskPanicked).
// A failing task never affects the worker or other tasks.
//
// Shutdown
//   - Terminate: idempotent; refuses new tasks, wakes idle workers so they exit and
//     fails blocked submitters with ErrPoolTerminated. Queued tasks are abandoned and
//     their futures are never fulfilled; use Future.GetContext to bound such waits.
//   - Close: Terminate, then wait until every worker goroutine has exited.
//
// Options
//   - WithLogger: log/slog logger for lifecycle records (default: discard).
//   - WithMetrics: metrics.Provider (default: no-op). See the metrics and
//     metrics/prometheus packages.
package threadpool
