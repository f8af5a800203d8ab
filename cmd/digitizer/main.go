// cmd/digitizer/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"form-digitizer/internal/access"
	"form-digitizer/internal/api"
	"form-digitizer/internal/branding"
	"form-digitizer/internal/common/config"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/observability"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/common/validation"
	"form-digitizer/internal/dashboard"
	"form-digitizer/internal/extraction"
	"form-digitizer/internal/ingest"
	"form-digitizer/internal/records"
	"form-digitizer/internal/sheets"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	zapLog.Info("Starting form digitizer...", zap.String("storage", cfg.Storage.Driver))

	ctx := context.Background()

	// --- Storage ---
	var kv storage.KV
	err = retryWithBackoff(func() error {
		var err error
		kv, err = storage.Open(cfg.Storage)
		if err != nil {
			return err
		}
		return kv.Ping(ctx)
	}, 5, time.Second, zapLog, "storage connection")
	if err != nil {
		zapLog.Fatal("storage unavailable", zap.Error(err))
	}
	defer kv.Close()

	obs := observability.New(cfg.App.Name, nil)
	defer obs.Shutdown()

	// --- Domain services ---
	store := records.NewStore(kv, log)
	store.Load(ctx)

	extractor := extraction.NewClient(extraction.ConfigFrom(cfg.Extraction), extraction.Dependencies{
		Logger:        log,
		Observability: obs,
	})
	if cfg.Extraction.APIKey == "" {
		zapLog.Warn("extraction api key not set; uploads will fail until it is configured")
	}

	sheetsClient := sheets.NewClient(sheets.ConfigFrom(cfg.Sheets), sheets.Dependencies{
		Logger:        log,
		Observability: obs,
	})
	if !sheetsClient.Configured() {
		zapLog.Warn("spreadsheet web-hook not configured; sync is disabled")
	}

	ingestSvc := ingest.NewService(ingest.Dependencies{
		Store:     store,
		Extractor: extractor,
		Pusher:    sheetsClient,
		Validator: validation.NewStructValidator(),
		Logger:    log,
	}, ingest.ConfigFrom(cfg))

	dashboardSvc := dashboard.NewService(dashboard.Dependencies{
		Local:  store,
		Remote: sheetsClient,
		KV:     kv,
		Logger: log,
	}, &dashboard.Config{CacheTTL: cfg.DashboardCacheTTL()})

	gate := access.NewGate(kv, access.ConfigFrom(cfg), log)

	brandingSvc := branding.NewService(kv, log)
	brandingSvc.Load(ctx)

	server := api.NewServer(api.Services{
		Ingest:    ingestSvc,
		Records:   store,
		Dashboard: dashboardSvc,
		Access:    gate,
		Branding:  brandingSvc,
		KV:        kv,
	}, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MaxUploadBytes:     int64(cfg.Server.MaxUploadMB) << 20,
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	// in-flight extractions still write their result before storage closes
	ingestSvc.Wait()
	zapLog.Info("Form digitizer stopped")
}
