package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
	"github.com/i474232898/air-quality-collector/internal/airquality/providers"
	httpapi "github.com/i474232898/air-quality-collector/internal/api/http"
	"github.com/i474232898/air-quality-collector/internal/config"
	"github.com/i474232898/air-quality-collector/internal/geo"
	"github.com/i474232898/air-quality-collector/internal/observability"
	"github.com/i474232898/air-quality-collector/internal/publish"
	"github.com/i474232898/air-quality-collector/internal/scheduler"
	"github.com/i474232898/air-quality-collector/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	if err := run(); err != nil {
		log.Fatalf("air-quality-collector: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := observability.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting air-quality-collector",
		zap.Strings("regions", cfg.Regions),
		zap.Duration("interval", cfg.CollectInterval),
		zap.String("output", cfg.OutputPath))

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := providers.NewAirKoreaProvider(httpClient, cfg.APIKey, cfg.APIURL, providers.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Timeout:          cfg.BreakerTimeout,
	}, logger)

	fileStore := store.NewFileStore(cfg.OutputPath)
	memStore := store.NewMemoryStore()
	seedMemory(fileStore, memStore, logger)

	sinks := []airquality.SnapshotWriter{memStore}

	if cfg.SQLitePath != "" {
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	if cfg.MQTTBroker != "" {
		pub := publish.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, logger)
		connectCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		err := pub.Connect(connectCtx)
		cancel()
		if err != nil {
			// The client keeps retrying in the background; writes fail until it connects.
			logger.Warn("mqtt broker unavailable at startup", zap.Error(err))
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	service := airquality.NewService(fetcher, cfg.Regions, fileStore, logger, sinks...)

	sched := scheduler.New(service, cfg.CollectInterval, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp()
	httpapi.RegisterRoutes(app, memStore, geo.NewResolver(cfg.GeocoderAPIKey, logger), cfg.Regions, logger)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	return nil
}

// seedMemory serves the last written file until the first cycle completes.
func seedMemory(file *store.FileStore, mem *store.MemoryStore, logger *zap.Logger) {
	snaps, err := file.Load()
	switch {
	case errors.Is(err, store.ErrNoSnapshotFile):
		return
	case err != nil:
		logger.Warn("could not seed from output file", zap.String("path", file.Path()), zap.Error(err))
		return
	}
	mem.Replace(snaps)
	logger.Info("seeded snapshots from output file", zap.Int("regions", len(snaps)))
}

