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

	"life-tracker/internal/config"
	"life-tracker/internal/handlers"
	"life-tracker/internal/logger"
	"life-tracker/internal/storage"
	"life-tracker/internal/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := storage.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return err
	}
	defer db.Close()

	srv := newServer(cfg, db, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		db.RunSessionCleaner(gctx, cfg.SessionCleanupInterval, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// setupRouter builds the handlers and their upstream clients from cfg.
func setupRouter(cfg *config.Config, db handlers.Store, log *zap.Logger) http.Handler {
	gemini := upstream.NewGemini(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.UpstreamTimeout)
	weather := upstream.NewWeather(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.UpstreamTimeout)

	h := handlers.NewHandlers(db, gemini, weather, log, handlers.Options{
		SessionTTL:         cfg.SessionTTL,
		SecureCookie:       cfg.SecureCookie,
		StaticFile:         cfg.StaticFile,
		WeatherRequireAuth: cfg.WeatherRequireAuth,
	})
	return handlers.NewRouter(h, log)
}

func newServer(cfg *config.Config, db handlers.Store, log *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(cfg, db, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// generate calls may take up to the upstream timeout
		WriteTimeout:   cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}
