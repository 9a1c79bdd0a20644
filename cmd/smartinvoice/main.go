package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartinvoice/internal/amqp"
	"smartinvoice/internal/auth"
	"smartinvoice/internal/cli"
	"smartinvoice/internal/extract"
	apphttp "smartinvoice/internal/http"
	"smartinvoice/internal/invoices"
	"smartinvoice/internal/invoices/memory"
	applog "smartinvoice/internal/log"
	"smartinvoice/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is required")
		os.Exit(1)
	}

	// Data backend: sqlite for real use, memory for quick local runs.
	var (
		repo      invoices.Repository
		userStore auth.UserStore
		closeRepo func() error
	)
	switch cfg.DataBackend {
	case "memory":
		store := memory.New()
		repo = store
		userStore = newMemoryUserStore()
		closeRepo = func() error { return nil }
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	default:
		sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		repo = sqliteRepo
		userStore = sqliteRepo
		closeRepo = sqliteRepo.Close
		logger.Info("Initialized SQLite backend",
			"backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Error("Closing repository failed", "error", err)
		}
	}()

	// The export pipeline is optional; without it invoices only live locally.
	var publisher services.ExportPublisher
	if cfg.ExportConfigured() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Export pipeline enabled",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Export pipeline disabled - AMQP_URL or GOOGLE_SPREADSHEET_ID not set")
	}

	invoiceSvc := services.NewInvoiceService(repo, publisher)
	authSvc := auth.NewService(userStore, logger)
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	extractor := extract.NewMockExtractor()

	srv := apphttp.NewServer(":"+cfg.Port, invoiceSvc, extractor, authSvc, sessions)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting smartinvoice server",
		"port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
