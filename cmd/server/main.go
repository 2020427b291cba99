/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the back-office bookkeeping server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config.toml + BACKOFFICE_* env vars)
  2. Build the zap logger
  3. Open the SQLite store (seeds the chart and roster on first run)
  4. Open the domain services over the shared ledger
  5. Configure HTTP router
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (configurable timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  BACKOFFICE_DATABASE_PATH=./data/backoffice.db ./server

  # Run with in-memory database
  BACKOFFICE_DATABASE_PATH=":memory:" ./server

  # Run on different port
  BACKOFFICE_SERVER_PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mozz/backoffice/api"
	"github.com/mozz/backoffice/config"
	"github.com/mozz/backoffice/expense"
	"github.com/mozz/backoffice/ledger"
	"github.com/mozz/backoffice/payroll"
	"github.com/mozz/backoffice/shift"
	"github.com/mozz/backoffice/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Open domain services. First run seeds the chart of accounts and
	// the staff roster.
	ctx := context.Background()
	book, err := ledger.Open(ctx, store)
	if err != nil {
		logger.Fatal("failed to open ledger", zap.Error(err))
	}
	shifts, err := shift.Open(ctx, store, book)
	if err != nil {
		logger.Fatal("failed to open shift service", zap.Error(err))
	}
	staff, err := payroll.Open(ctx, store, book)
	if err != nil {
		logger.Fatal("failed to open payroll service", zap.Error(err))
	}
	expenses, err := expense.Open(ctx, store, book)
	if err != nil {
		logger.Fatal("failed to open expense tracker", zap.Error(err))
	}

	handler := api.NewHandler(book, shifts, staff, expenses, logger)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	// Fire overdue recurring payments on startup and hourly thereafter.
	scheduler := api.NewPaymentScheduler(expenses, logger)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
