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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-ledger-backend/internal/api"
	"equipment-ledger-backend/internal/db"
	"equipment-ledger-backend/internal/metrics"
	"equipment-ledger-backend/internal/respcache"
	"equipment-ledger-backend/internal/store"
)

func NewServeCommand(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer logger.Sync()

			// Initialize database
			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			opts := api.RouterOptions{
				Store:     store.NewGormStore(gormDB),
				Logger:    logger,
				RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
				RateBurst: cfg.Server.RateLimitBurst,
			}
			if cfg.Cache.Enabled {
				backend, err := respcache.New(&cfg.Cache, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize response cache: %w", err)
				}
				if r, ok := backend.(*respcache.Redis); ok {
					defer r.Close()
				}
				opts.Cache = backend
			}
			if cfg.Metrics.Enabled {
				opts.Metrics = metrics.New()
				opts.MetricsPath = cfg.Metrics.Path
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           api.NewRouter(opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start the server in a goroutine
			serveErr := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// Setup signal handling for graceful shutdown
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(stop)

			select {
			case <-stop:
				logger.Info("shutdown signal received, stopping server")
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("HTTP server ListenAndServe: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}
			logger.Info("server gracefully stopped")
			return nil
		},
	}
}
