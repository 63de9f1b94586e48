// Package config loads the demo CLI configuration from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk layout of the CLI configuration.
type FileConfig struct {
	Pool  PoolConfig  `yaml:"pool"`
	Tasks TasksConfig `yaml:"tasks"`

	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// PoolConfig holds the pool sizing. A nil field keeps the default; an explicit
// zero is kept and left to the pool constructor to accept or reject.
type PoolConfig struct {
	MinWorkers   *uint `yaml:"min_workers"`
	MaxWorkers   *uint `yaml:"max_workers"`
	MaxQueueSize *uint `yaml:"max_queue_size"`
}

// TasksConfig holds the batch sizes and simulated durations of the demo tasks.
// Delays are Go duration strings ("300ms").
type TasksConfig struct {
	Task1Count *int   `yaml:"task1_count"`
	Task2Count *int   `yaml:"task2_count"`
	Task1Delay string `yaml:"task1_delay"`
	Task2Delay string `yaml:"task2_delay"`
}

// Config is the resolved CLI configuration.
type Config struct {
	MinWorkers   uint
	MaxWorkers   uint
	MaxQueueSize uint

	Task1Count int
	Task2Count int
	Task1Delay time.Duration
	Task2Delay time.Duration

	LogLevel    slog.Level
	MetricsAddr string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MinWorkers:   4,
		MaxWorkers:   8,
		MaxQueueSize: 100,
		Task1Count:   50,
		Task2Count:   30,
		Task1Delay:   300 * time.Millisecond,
		Task2Delay:   700 * time.Millisecond,
		LogLevel:     slog.LevelInfo,
	}
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fc, nil
}

// Resolve overlays the fields present in f on Default.
func (f *FileConfig) Resolve() (Config, error) {
	cfg := Default()

	overlay(&cfg.MinWorkers, f.Pool.MinWorkers)
	overlay(&cfg.MaxWorkers, f.Pool.MaxWorkers)
	overlay(&cfg.MaxQueueSize, f.Pool.MaxQueueSize)
	overlay(&cfg.Task1Count, f.Tasks.Task1Count)
	overlay(&cfg.Task2Count, f.Tasks.Task2Count)

	if f.Tasks.Task1Delay != "" {
		d, err := time.ParseDuration(f.Tasks.Task1Delay)
		if err != nil {
			return cfg, fmt.Errorf("invalid tasks.task1_delay: %w", err)
		}
		cfg.Task1Delay = d
	}
	if f.Tasks.Task2Delay != "" {
		d, err := time.ParseDuration(f.Tasks.Task2Delay)
		if err != nil {
			return cfg, fmt.Errorf("invalid tasks.task2_delay: %w", err)
		}
		cfg.Task2Delay = d
	}

	if f.LogLevel != "" {
		lvl, err := ParseLevel(f.LogLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	cfg.MetricsAddr = f.MetricsAddr

	return cfg, cfg.Validate()
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks the values the pool constructor does not.
func (c Config) Validate() error {
	if c.Task1Count < 0 || c.Task2Count < 0 {
		return fmt.Errorf("task counts must be non-negative")
	}
	if c.Task1Delay < 0 || c.Task2Delay < 0 {
		return fmt.Errorf("task delays must be non-negative")
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
