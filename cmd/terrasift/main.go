package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terrasift/terrasift/internal/api"
	"github.com/terrasift/terrasift/internal/config"
	"github.com/terrasift/terrasift/internal/engine"
	"github.com/terrasift/terrasift/internal/events"
	"github.com/terrasift/terrasift/internal/selectivity"
	"github.com/terrasift/terrasift/internal/site"
	"github.com/terrasift/terrasift/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Logging.Level)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dataset
	var datasetStore store.Store
	switch cfg.Dataset.Source {
	case "postgres":
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		datasetStore = db
		logger.Info("connected to database")
	default:
		datasetStore = store.NewMemoryStore(store.GenerateSites(cfg.Dataset.SyntheticCount, cfg.Dataset.SyntheticSeed))
		logger.Info("using synthetic dataset", "count", cfg.Dataset.SyntheticCount, "seed", cfg.Dataset.SyntheticSeed)
	}
	defer datasetStore.Close()

	records, err := datasetStore.LoadSites(ctx)
	if err != nil {
		logger.Error("failed to load sites", "error", err)
		os.Exit(1)
	}
	provider := site.NewCachedProvider(records, site.ComputeExtended)
	stats := selectivity.BuildStats(records)
	logger.Info("site population loaded", "total", len(records), "eligible", stats.Total)

	// Events (optional)
	var publisher events.Publisher
	if cfg.Events.URL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event broker, running without events", "error", err)
		} else {
			publisher = pub
			defer pub.Close()
			logger.Info("connected to event broker")
		}
	}

	// Engine and run registry
	eng := engine.New(provider, cfg.Scoring, cfg.Engine.ChunkSize, cfg.Engine.Workers, logger)
	runs := engine.NewRuns(eng, publisher, cfg.RunRetention(), logger)

	detector := selectivity.NewDetector(stats)
	detector.WarnBelow = cfg.Selectivity.WarnBelow
	detector.ErrorBelow = cfg.Selectivity.ErrorBelow
	detector.RareFraction = cfg.Selectivity.RareFraction

	// API server
	router := api.NewRouter(runs, stats, detector, api.Defaults{
		TopN:          cfg.Engine.DefaultTopN,
		MinAcceptable: cfg.Engine.MinAcceptable,
	}, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
