package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/reconciler/internal/config"
	"github.com/MrJamesThe3rd/reconciler/internal/database"
	"github.com/MrJamesThe3rd/reconciler/internal/export"
	reconHttp "github.com/MrJamesThe3rd/reconciler/internal/http"
	batchHandler "github.com/MrJamesThe3rd/reconciler/internal/http/batch"
	exportHandler "github.com/MrJamesThe3rd/reconciler/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/reconciler/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/reconciler/internal/http/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/importer"
	"github.com/MrJamesThe3rd/reconciler/internal/logging"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/reconciler/internal/matching/store"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	reconStore "github.com/MrJamesThe3rd/reconciler/internal/reconciliation/store"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	engine := matching.NewEngine(cfg.MatchingConfig())
	batchService := reconciliation.NewService(reconStore.New(db), matchingStore.New(db), engine,
		reconciliation.WithLogger(logger),
		reconciliation.WithAutoSaveDelay(cfg.Reconcile.AutoSaveDelay),
		reconciliation.WithFlushConcurrency(cfg.Reconcile.FlushConcurrency),
		reconciliation.WithBatchPrefix(cfg.Reconcile.BatchPrefix),
		reconciliation.WithLineNumbers(transaction.NewLineNumberGenerator(cfg.Reconcile.LinePrefix)),
	)

	var (
		importService = importer.NewService()
		exportService = export.NewService(batchService)
	)

	var (
		batchH    = batchHandler.NewHandler(batchService)
		importH   = importHandler.NewHandler(importService, batchService)
		matchingH = matchingHandler.NewHandler(batchService)
		exportH   = exportHandler.NewHandler(exportService)
	)

	router := reconHttp.New(reconHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, batchH, importH, matchingH, exportH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           http.TimeoutHandler(router, cfg.Server.Timeout, "request timed out"),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		slog.Info("starting server", "port", srv.Addr, "auth", cfg.Auth.JWTSecret != "")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}

	if err := batchService.Close(shutdownCtx); err != nil {
		slog.Error("failed to flush open batches", "error", err)
	}

	slog.Info("server stopped")
}
