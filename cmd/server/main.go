package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/solarie/joias/internal/app"
	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/repository/memory"
	"github.com/solarie/joias/internal/repository/mongodb"
	"github.com/solarie/joias/internal/repository/sheets"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/internal/scheduler"
	whatsappsvc "github.com/solarie/joias/internal/service/whatsapp"
	whatsappclient "github.com/solarie/joias/pkg/clients/whatsapp"
	"github.com/solarie/joias/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	backend, err := openBackend(context.Background(), cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open document store", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			baseLogger.Error("failed to close document store", zap.Error(err))
		}
	}()

	var ext app.Integrations
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		ext.Sheet = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, monthly export disabled")
	}

	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		ext.Messaging = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, baseLogger.Named("svc.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp token missing, weekly summaries disabled")
	}

	application, err := app.New(context.Background(), cfg, backend, loc, ext, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init application", zap.Error(err))
	}

	sched := scheduler.NewScheduler(*cfg, application.Reporting, ext.Messaging, loc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// No write timeout: snapshot streams stay open for the whole session.
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     application.Engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Backend, error) {
	if cfg.Store.Backend == config.BackendMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("repo.mongodb"))
}
