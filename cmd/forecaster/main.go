package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/config"
	"github.com/irfndi/gruforecast/internal/gru"
	"github.com/irfndi/gruforecast/internal/logging"
	"github.com/irfndi/gruforecast/internal/marketdata"
	"github.com/irfndi/gruforecast/internal/search"
	"github.com/irfndi/gruforecast/internal/telemetry"
)

func main() {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	logger.WithField("ticker", cfg.Forecast.Ticker).Info("Starting grid search")

	provider, err := marketdata.NewCSVProvider(cfg.Forecast.Ticker, cfg.Data.CandlesCSV, nil)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load candle data")
	}

	// Compute backend and RNG are fixed here for the whole run.
	computeCtx := compute.NewContext(cfg.Forecast.Seed)
	progress := telemetry.NewProgressLogger(logger)
	resources := telemetry.NewResourceMonitor(logger)

	orchestrator := &search.GridSearchOrchestrator{
		Provider:      provider,
		Compute:       computeCtx,
		Logger:        logger,
		Ticker:        cfg.Forecast.Ticker,
		StartDate:     cfg.StartDate(),
		EndDate:       cfg.EndDate(),
		Cycles:        cfg.Forecast.Cycles,
		Epochs:        cfg.Forecast.Epochs,
		EpochObserver: progress,
		CycleObserver: progress,
	}

	ctx := context.Background()
	best, err := orchestrator.Run(ctx, &cfg.Grid)
	if err != nil {
		logger.WithError(err).Fatal("Grid search aborted")
	}
	resources.LogSnapshot(ctx)

	progress.LogBestSummary(best)

	checkpointer := gru.NewCheckpointer(cfg.Forecast.CheckpointPath)
	path, err := checkpointer.Save(best.Model)
	if err != nil {
		logger.WithError(err).Fatal("Failed to save best model")
	}
	logger.WithField("path", path).Info("Best model saved")
}
