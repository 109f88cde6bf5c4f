package main

import (
	"context"
	"net/http"
	"os"
	"time"

	appamqp "homeledger/internal/amqp"
	"homeledger/internal/app"
	"homeledger/internal/catalog"
	"homeledger/internal/cli"
	"homeledger/internal/core"
	apphttp "homeledger/internal/http"
	"homeledger/internal/ledger"
	"homeledger/internal/log"
	"homeledger/internal/report"
	"homeledger/internal/storage"
)

// store is the combined persistence surface shared by the catalog, the day
// sync and the monthly aggregator.
type store interface {
	catalog.Store
	ledger.Store
	report.Store
	apphttp.ReadyChecker
	Close() error
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	var repo store
	switch cfg.DataBackend {
	case "sqlite":
		repo = cli.InitSQLite(logger, cfg.SQLiteDBPath)
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		repo = storage.NewMemoryStore(storage.DefaultCategories())
		logger.Info("Initialized memory backend")
	}
	defer repo.Close()

	// Day-saved events are optional; without a broker the ledger still works.
	var publisher app.Publisher
	var amqpClient *appamqp.Client
	if cfg.AMQPURL != "" {
		client, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		amqpClient = client
		publisher = client
		defer amqpClient.Close()
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	cat := catalog.New(repo)
	day := ledger.NewDaySync(repo, cat)
	monthly := report.NewMonthlyAggregator(repo)
	controller := app.NewController(core.NewCursor(time.Now()), cat, day, monthly, publisher)

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := controller.Refresh(startCtx); err != nil {
		logger.Error("Initial refresh failed", "error", err)
	}
	startCancel()

	srv := apphttp.NewServer(":"+cfg.Port, controller, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting homeledger server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
