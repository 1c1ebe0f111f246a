package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/carupload/internal/config"
	"github.com/JonMunkholm/carupload/internal/core"
	"github.com/JonMunkholm/carupload/internal/logging"
	"github.com/JonMunkholm/carupload/internal/metrics"
	"github.com/JonMunkholm/carupload/internal/store"
	"github.com/JonMunkholm/carupload/internal/web"
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

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	// Connect to the configured store
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to create schema", "error", err)
		os.Exit(1)
	}
	slog.Info("store ready", "driver", cfg.Database.Driver)

	recorder := metrics.NewRecorder()

	// Workers run on their own root context so request cancellation never
	// reaches a running upload.
	executor := core.NewExecutor(ctx, core.ExecutorConfig{
		NamePrefix: cfg.Executor.NamePrefix,
	}, core.WithExecutorObserver(recorder))
	recorder.WatchExecutor(executor.Status)

	service, err := core.NewService(db, executor, core.WithUploadObserver(recorder))
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg,
		web.WithHealthCheck(db),
		web.WithMetrics(recorder.Handler()),
	)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests first so no new jobs are submitted
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		// Then let queued uploads finish (with timeout)
		status := service.ExecutorStatus()
		slog.Info("waiting for queued jobs", "active", status.Active, "queued", status.Queued)
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("jobs did not complete in time", "error", err)
		} else {
			slog.Info("all jobs completed")
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
