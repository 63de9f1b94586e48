package threadpool

import (
	"log/slog"
	"strconv"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool/metrics"
)

// config holds Pool configuration. It is never mutated after New returns.
type config struct {
	// MinWorkers is the number of workers spawned by New and the floor
	// below which idle workers never retire.
	MinWorkers uint

	// MaxWorkers caps the number of live workers and sizes the slot table.
	MaxWorkers uint

	// MaxQueueSize is the capacity of the pending tasks queue.
	// Submitters block while the queue holds MaxQueueSize tasks.
	MaxQueueSize uint

	// Logger receives worker lifecycle records.
	// Default: a logger discarding everything.
	Logger *slog.Logger

	// Metrics is the instrumentation backend.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for the ambient part of config.
// Sizes are always supplied by New.
func defaultConfig(minWorkers, maxWorkers, maxQueueSize uint) config {
	return config{
		MinWorkers:   minWorkers,
		MaxWorkers:   maxWorkers,
		MaxQueueSize: maxQueueSize,
		Logger:       slog.New(slog.DiscardHandler),
		Metrics:      metrics.NewNoopProvider(),
	}
}

// validateConfig checks sizing invariants.
func validateConfig(cfg *config) error {
	switch {
	case cfg.MaxWorkers == 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "max workers must be > 0"))

	case cfg.MinWorkers > cfg.MaxWorkers:
		return errorc.With(
			ErrInvalidConfig,
			errorc.String("", "min workers must not exceed max workers"),
			errorc.String("min", strconv.FormatUint(uint64(cfg.MinWorkers), 10)),
			errorc.String("max", strconv.FormatUint(uint64(cfg.MaxWorkers), 10)),
		)

	case cfg.MaxQueueSize == 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "max queue size must be > 0"))
	}

	return nil
}

// Option configures a Pool. Use New(min, max, queueSize, opts...) to construct a Pool.
type Option func(*config) error

// WithLogger sets the structured logger used for worker lifecycle records.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider (default: no-op).
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
