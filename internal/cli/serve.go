package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spscricket/player-service/internal/app"
	"github.com/spscricket/player-service/internal/clock"
	"github.com/spscricket/player-service/internal/guard"
	"github.com/spscricket/player-service/internal/handler"
	"github.com/spscricket/player-service/internal/infra"
	"github.com/spscricket/player-service/internal/service"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}
}

func serve(parent context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := e.cfg, e.logger

	if cfg.AutoMigrate {
		if err := infra.RunMigrations(cfg.DSN(), cfg.MigrationsDir, logger); err != nil {
			return err
		}
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	var images service.ImageSigner
	if cfg.ImagesEnabled() {
		store, err := infra.NewImageStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init image store: %w", err)
		}
		images = store
		logger.Info("image storage enabled", "bucket", cfg.ImageBucket, "endpoint", cfg.ImageEndpoint)
	}

	clk := clock.New()

	var limiter handler.RateLimiter
	if cfg.RateLimitEnabled() {
		rl := guard.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clk)
		go sweepLimiter(ctx, rl)
		limiter = rl
		logger.Info("rate limiting enabled", "requests", cfg.RateLimitRequests, "window", cfg.RateLimitWindow)
	}

	r := app.NewRouter(app.RouterDeps{
		DB:                 pool,
		Logger:             logger,
		Clock:              clk,
		Images:             images,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// sweepLimiter forgets idle clients once per window.
func sweepLimiter(ctx context.Context, rl *guard.RateLimiter) {
	ticker := time.NewTicker(rl.Window())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
