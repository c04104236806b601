package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imedwei/apk-portal/internal/config"
	"github.com/imedwei/apk-portal/internal/health"
	"github.com/imedwei/apk-portal/internal/logging"
	"github.com/imedwei/apk-portal/internal/metrics"
	"github.com/imedwei/apk-portal/internal/portal"
	"github.com/imedwei/apk-portal/internal/server"
	"github.com/imedwei/apk-portal/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		slog.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Log configuration (without sensitive data)
	logger.Info("APK portal starting",
		"version", version,
		"storage_provider", cfg.StorageProvider,
		"bucket", cfg.Bucket,
		"region", cfg.AWSRegion,
		"prefix", cfg.Prefix,
		"port", cfg.Port,
		"max_upload_mb", cfg.MaxUploadMB,
	)
	metrics.Info.WithLabelValues(version, cfg.StorageProvider).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create storage provider
	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create storage provider", "error", err)
		os.Exit(1)
	}

	handler := portal.NewHandler(store, portal.Options{
		Prefix:         cfg.Prefix,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, logger)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port
	serverConfig.MetricsEnabled = cfg.MetricsEnabled
	serverConfig.CORSAllowedOrigins = cfg.CORSAllowedOrigins

	httpServer := server.New(serverConfig, logger, health.NewChecker(), handler)
	httpServer.RegisterHealthCheck("storage",
		health.StorageCheck(store, cfg.StorageProvider, cfg.Prefix, 5*time.Second))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}

	logger.Info("APK portal stopped")
}
