package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/tariffdash/internal/application"
	"github.com/JonMunkholm/tariffdash/internal/config"
	"github.com/JonMunkholm/tariffdash/internal/core"
	"github.com/JonMunkholm/tariffdash/internal/logging"
	"github.com/JonMunkholm/tariffdash/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"remote_sources", cfg.Sources.Remote(),
		"concurrent_fetch", cfg.Sources.Concurrent,
		"scoring", cfg.Scoring.Mode,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline, err := application.NewPipeline(cfg, core.NewMetrics(reg),
		logging.WithFields(context.Background(), "component", "pipeline"))
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	store := core.NewSnapshotStore()
	server := web.NewServer(store, cfg, reg)

	// Load in the background; readers get 503 until the snapshot lands
	loadCtx, cancelLoad := context.WithCancel(context.Background())
	go func() {
		_ = application.Load(loadCtx, pipeline, store, cfg.Sources.FetchTimeout)
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelLoad()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
