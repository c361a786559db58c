package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideaforge/ideaforge-go/internal/config"
	"github.com/ideaforge/ideaforge-go/internal/metrics"
	"github.com/ideaforge/ideaforge-go/internal/observability"
	"github.com/ideaforge/ideaforge-go/internal/provider"
	"github.com/ideaforge/ideaforge-go/internal/server"
)

// usageRecorder joins the provider client's token reports with catalog
// pricing.
type usageRecorder struct {
	tracker *metrics.Tracker
	catalog *provider.Catalog
}

func (u *usageRecorder) Record(model string, usage provider.Usage) {
	price := u.catalog.PriceFor(model)
	u.tracker.Record(model, usage.InputTokens, usage.OutputTokens, metrics.Pricing{
		Input:  price.Input,
		Output: price.Output,
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelemetryURL != "" {
		tp, err := observability.Setup(ctx, cfg.TelemetryURL)
		if err != nil {
			log.Fatalf("failed to set up tracing: %v", err)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	catalog, err := provider.LoadCatalog(cfg.ModelsPath)
	if err != nil {
		log.Fatalf("failed to load model catalog: %v", err)
	}

	registry := provider.NewRegistry()
	tracker := metrics.NewTracker()
	client := provider.NewClient(registry,
		provider.WithLogger(logger),
		provider.WithUsageRecorder(&usageRecorder{tracker: tracker, catalog: catalog}),
	)

	srv := server.New(cfg, logger, client, registry, catalog, tracker)
	logger.Info("starting server", "address", cfg.Address, "default_model", cfg.DefaultModel)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
