// Package main is the entry point for etfscope, an HTTP service that turns stored
// ETF closing prices into heatmap and chart data.
//
// The application follows the same layering throughout:
// - Domain types and errors in internal/domain
// - Dependency injection via DI container
// - Per-symbol CSV storage and a SQLite metadata database
// - HTTP handlers per module, mounted by internal/server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/etfscope/internal/config"
	"github.com/aristath/etfscope/internal/di"
	"github.com/aristath/etfscope/internal/server"
	"github.com/aristath/etfscope/pkg/logger"
)

// main loads configuration, wires dependencies, starts the scheduler and the
// HTTP server, then waits for SIGINT or SIGTERM to shut both down.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		File:   cfg.LogFile,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Int("workers", cfg.Workers).
		Msg("Starting etfscope")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		DataDir:     cfg.DataDir,
		CORSOrigins: cfg.CORSOrigins,
		Container:   container,
		Jobs:        jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Scheduler is stopped by container.Close, after in-flight jobs return
	log.Info().Msg("Server stopped")
}
