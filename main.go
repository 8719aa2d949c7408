package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"apartment-harvester/browser"
	"apartment-harvester/config"
	"apartment-harvester/scraper/apartments"
	"apartment-harvester/services"
	"apartment-harvester/storage"
	"apartment-harvester/telemetry"
	"apartment-harvester/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Apartment Harvesting System starting ===")
	logger.Info("Config — entry: %s | engine: %s | concurrency: %d | page limit: %d | retries: %d",
		cfg.EntryURL, cfg.Engine, cfg.MaxConcurrency, cfg.PageLimit, cfg.RetryAttempts)

	ctx := context.Background()

	var metrics telemetry.Metrics = telemetry.Noop{}
	collector, err := telemetry.Setup(ctx, telemetry.Config{
		GrpcEndpoint: cfg.OTLPMetricsGRPC,
		HttpEndpoint: cfg.OTLPMetricsHTTP,
	})
	switch {
	case err == nil:
		metrics = collector
		defer collector.Shutdown(ctx)
	case errors.Is(err, telemetry.ErrNotConfigured):
		logger.Info("Telemetry not configured — metrics disabled")
	default:
		logger.Warn("Telemetry setup failed, continuing without metrics: %v", err)
	}

	store, err := storage.OpenPostgres(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure the database is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		logger.Error("Failed to start %s engine: %v", cfg.Engine, err)
		os.Exit(1)
	}
	defer engine.Close()

	snapshot := storage.NewSnapshotWriter(cfg.SnapshotPath)
	harvester := apartments.New(cfg, logger, metrics, engine)

	start := time.Now()
	outcomes, runErr := harvester.Run(ctx)

	// The snapshot is written even on fatal failure, so a crashed run
	// still leaves an inspectable artifact of everything collected.
	records := apartments.Records(outcomes)
	if err := snapshot.Write(records); err != nil {
		logger.Error("Snapshot write failed: %v", err)
	} else {
		logger.Info("Snapshot saved to %s (%d records)", cfg.SnapshotPath, len(records))
	}

	metrics.RunDuration(ctx, time.Since(start))
	metrics.SampleResourceUsage(ctx)

	if runErr != nil {
		logger.Error("Harvest aborted: %v", runErr)
		os.Exit(1)
	}

	successes := apartments.Successes(outcomes)
	saved, failedSaves := store.UpsertBatch(successes)
	for i := 0; i < failedSaves; i++ {
		metrics.DBInsertFailed(ctx, "property")
	}
	logger.Info("Persisted %d/%d validated records (%d failed)", saved, len(successes), failedSaves)

	summarySvc := services.NewSummaryService(logger)
	summarySvc.Print(summarySvc.Generate(outcomes, time.Since(start)))

	fmt.Printf("  Done. Snapshot → %s | Records → PostgreSQL (property, pricing_and_floor_plans)\n\n",
		cfg.SnapshotPath)
}

func newEngine(ctx context.Context, cfg *config.Config) (browser.Browser, error) {
	if cfg.Engine == "static" {
		return browser.NewStatic(), nil
	}
	return browser.NewChrome(ctx, cfg.ChromeBin)
}
