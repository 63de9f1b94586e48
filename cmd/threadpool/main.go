// Command threadpool drives a dynamically sized worker pool from an interactive menu.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ygrebnov/threadpool"
	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/internal/demo"
	prommetrics "github.com/ygrebnov/threadpool/metrics/prometheus"
)

func main() {
	var (
		configFile  = flag.String("config", "", "YAML configuration file")
		minWorkers  = flag.Uint("min", 0, "minimum number of workers")
		maxWorkers  = flag.Uint("max", 0, "maximum number of workers")
		queueSize   = flag.Uint("queue", 0, "maximum number of queued tasks")
		logLevel    = flag.String("log-level", "", "log level (debug, info, warn, error)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	)
	flag.Parse()

	cfg, err := buildConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// flags given explicitly win over the file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min":
			cfg.MinWorkers = *minWorkers
		case "max":
			cfg.MaxWorkers = *maxWorkers
		case "queue":
			cfg.MaxQueueSize = *queueSize
		case "log-level":
			cfg.LogLevel, flagErr = config.ParseLevel(*logLevel)
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", flagErr)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("threadpool failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	fc, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	return fc.Resolve()
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := threadpool.New(cfg.MinWorkers, cfg.MaxWorkers, cfg.MaxQueueSize,
		threadpool.WithLogger(logger),
		threadpool.WithMetrics(prommetrics.NewProvider(reg)),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
	}

	if err := demo.WarmUp(ctx, p, os.Stdout); err != nil {
		return err
	}

	menu := demo.NewMenu(p, demo.Settings{
		Task1Count: cfg.Task1Count,
		Task2Count: cfg.Task2Count,
		Task1Delay: cfg.Task1Delay,
		Task2Delay: cfg.Task2Delay,
		Logger:     logger,
	}, os.Stdout)

	// Scan on stdin does not observe ctx, so the menu runs on its own goroutine.
	done := make(chan error, 1)
	go func() { done <- menu.Run(ctx, os.Stdin) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		logger.Info("interrupted")
		err = nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
