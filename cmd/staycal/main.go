package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"staycal/internal/domain/calendar"
	"staycal/internal/infra/baseline"
	"staycal/internal/infra/config"
	ginserver "staycal/internal/infra/http/gin"
	"staycal/internal/infra/obs"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixtures, err := baseline.LoadFixtures(cfg.FixturesPath)
	if err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}
	window := calendar.NewBounds(calendar.Today(nil))
	if err := fixtures.Seed(ctx, app.commands, window, cfg.OperatorToken, logger); err != nil {
		logger.Warn("fixtures seed failed", "error", err)
	}

	if app.republisher != nil {
		if err := app.republisher.Start(cfg.RefreshCron); err != nil {
			logger.Error("republisher disabled", "error", err)
			app.republisher = nil
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if app.republisher != nil {
			app.republisher.Stop(shutdownCtx)
		}
		return server.Shutdown(shutdownCtx)
	})
	if app.worker != nil {
		g.Go(func() error { return ignoreCanceled(app.worker.Run(gctx)) })
	}
	if app.consumer != nil {
		g.Go(func() error { return ignoreCanceled(app.consumer.Run(gctx, []string{cfg.KafkaImportTopic})) })
	}
	if err := g.Wait(); err != nil {
		logger.Error("staycal stopped with error", "error", err)
		app.close(logger)
		os.Exit(1)
	}
	logger.Info("staycal stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
