package worker

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/app"
	"github.com/jmehdipour/inventory-sim/internal/kafka"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var metricsAddr string

var adjusterCmd = &cobra.Command{
	Use:   "adjuster",
	Short: "Apply inventory adjustments consumed from Kafka",
	RunE:  runAdjuster,
}

func init() {
	adjusterCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9101", "listen address for /metrics (empty disables)")
}

func runAdjuster(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2) inventory store; the synthetic backend only makes sense for demos
	inv, err := app.OpenInventory(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = inv.Close() }()
	if inv.DB == nil {
		logger.Log.Warn("adjuster: synthetic backend, changes are lost on exit")
	}

	// 3) kafka consumer
	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer func() { _ = consumer.Close() }()

	// 4) metrics endpoint
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("adjuster: metrics server", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	w := worker.NewAdjustmentWorker(consumer, inv.Store)
	if cfg.Kafka.MaxAttempts > 0 {
		w.MaxAttempts = cfg.Kafka.MaxAttempts
	}
	if cfg.Kafka.RetryBackoff > 0 {
		w.RetryBackoff = cfg.Kafka.RetryBackoff
	}

	logger.Log.Info("adjuster started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group_id", cfg.Kafka.GroupID),
		zap.String("inventory_backend", cfg.Inventory.Backend))

	err = w.Run(ctx)
	logger.Log.Info("adjuster stopped")
	return err
}
