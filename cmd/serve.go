package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/app"
	"github.com/jmehdipour/inventory-sim/internal/auth"
	httpSrv "github.com/jmehdipour/inventory-sim/internal/http"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/jmehdipour/inventory-sim/internal/service/query"
	"github.com/jmehdipour/inventory-sim/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tiers, err := app.Tiers(cfg)
		if err != nil {
			return err
		}

		inv, err := app.OpenInventory(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = inv.Close() }()

		customers, err := app.Customers(cfg, inv)
		if err != nil {
			return err
		}

		tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		limiter, limiterCloser, err := app.Limiter(cfg, tiers)
		if err != nil {
			return err
		}
		defer func() { _ = limiterCloser.Close() }()

		deps := httpSrv.Deps{
			Tokens:  tokens,
			Auth:    auth.NewAuthenticator(customers, tokens),
			Limiter: limiter,
			Delay:   app.Delay(cfg.Delay),
			Query:   query.New(inv.Store, tiers),
		}

		usageDone := make(chan struct{})
		if cfg.Usage.Enabled {
			chDB, err := app.OpenClickHouse(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = chDB.Close() }()

			usageRepo := repository.NewUsageRepository(chDB)
			recorder := worker.NewUsageRecorder(usageRepo, cfg.Usage.Buffer, cfg.Usage.BatchSize, cfg.Usage.BatchWait)
			go func() {
				recorder.Run(ctx)
				close(usageDone)
			}()
			deps.Usage = recorder
			deps.UsageRepo = usageRepo
		} else {
			close(usageDone)
		}

		server := httpSrv.NewServer(cfg, deps)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		logger.Log.Info("inventory simulator started",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("inventory_backend", cfg.Inventory.Backend),
			zap.String("rate_limit_backend", cfg.RateLimit.Backend),
			zap.Bool("usage", cfg.Usage.Enabled))

		var runErr error
		select {
		case <-ctx.Done():
			logger.Log.Info("signal received, shutting down")
		case runErr = <-errCh:
			if runErr != nil {
				logger.Log.Error("http server exited", zap.Error(runErr))
			}
		}
		stop()

		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			logger.Log.Warn("http shutdown", zap.Error(err))
		}
		<-usageDone

		if runErr != nil {
			return fmt.Errorf("http server: %w", runErr)
		}
		return nil
	},
}
