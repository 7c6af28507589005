// Command sawmill runs a sample instrumented pipeline: two tasks sharing
// one reporter, each wrapped in a reporting scope. Useful for exercising
// an ingestion endpoint end to end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sawmill-io/sawmill"
	"github.com/sawmill-io/sawmill/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SAWMILL_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	slog.Info("sawmill demo starting", "version", version)

	// Initialize OpenTelemetry (no-op without OTEL_EXPORTER_OTLP_ENDPOINT).
	otelShutdown, err := telemetry.Init(ctx,
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		envOr("OTEL_SERVICE_NAME", "sawmill-demo"),
		version,
		os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
	)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	reporter, err := sawmill.New(sawmill.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("reporter: %w", err)
	}

	// The tasks share one reporter across goroutines, so each scope takes
	// the same lock: one record in flight at a time.
	var mu sync.Mutex

	tasks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"task-demo#extract", func(ctx context.Context) error {
			return simulateWork(ctx, 200*time.Millisecond, os.Getenv("SAWMILL_DEMO_FAIL") == "extract")
		}},
		{"task-demo#train", func(ctx context.Context) error {
			return simulateWork(ctx, 350*time.Millisecond, os.Getenv("SAWMILL_DEMO_FAIL") == "train")
		}},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			scope := reporter.Scope(task.name,
				sawmill.WithLock(&mu),
				sawmill.WithArtifactURL("mlflow://runs/demo/"+task.name),
			)
			return scope.Run(ctx, task.fn)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	slog.Info("sawmill demo finished")
	return nil
}

func simulateWork(ctx context.Context, d time.Duration, fail bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
	}
	if fail {
		return fmt.Errorf("something broke")
	}
	return nil
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
