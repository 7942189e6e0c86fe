// Command api is the FootIQ Metric Engine API server.
//
// Usage:
//
//	footiq-api
//	DATA_MODE=replay API_PORT=8080 footiq-api

// @title FootIQ Metric Engine API
// @version 1.0.0
// @description Deterministic routing, per-90 normalization and league baseline comparison for football player statistics.
// @host localhost:8001
// @BasePath /api/v1
// @schemes http https
// @contact.name FootIQ
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/footiq/internal/api"
	"github.com/albapepper/footiq/internal/api/handler"
	"github.com/albapepper/footiq/internal/app"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/listener"
	"github.com/albapepper/footiq/internal/maintenance"

	_ "github.com/albapepper/footiq/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var dbCheck handler.HealthChecker
	if a.Pool != nil {
		dbCheck = a.Pool

		// Baseline imports reach this process via NOTIFY; the ticker
		// catches any that arrive while the listener is reconnecting.
		if cfg.BaselinesListen {
			go listener.Start(ctx, cfg.DatabaseURL, a.ReloadBaselines, logger)
		}
		go maintenance.Start(ctx, a.MaintenanceTasks(cfg), logger)
	}

	// Create router
	router := api.NewRouter(api.Deps{
		Engine:  a.Engine,
		Cache:   a.Cache,
		Config:  cfg,
		DB:      dbCheck,
		Metrics: a.Metrics,
		Logger:  logger,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting FootIQ API",
			"addr", addr,
			"environment", cfg.Environment,
			"data_mode", cfg.DataMode,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
