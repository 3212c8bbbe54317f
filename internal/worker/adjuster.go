package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/delay"
	"github.com/jmehdipour/inventory-sim/internal/inventory"
	"github.com/jmehdipour/inventory-sim/internal/kafka"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"go.uber.org/zap"
)

// Source is the subset of kafka.Consumer the adjuster needs.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type Adjuster interface {
	Adjust(ctx context.Context, itemID string, delta int64) (model.InventoryItem, error)
}

// AdjustmentWorker:
// - fetches adjustments from Kafka one at a time (partition order is kept),
// - applies them to the inventory store,
// - retries transient failures a bounded number of times,
// - always commits, so poison messages are skipped.
type AdjustmentWorker struct {
	Source       Source
	Store        Adjuster
	MaxAttempts  int           // per message, default 3
	RetryBackoff time.Duration // doubled after each failed attempt
}

func NewAdjustmentWorker(src Source, store Adjuster) *AdjustmentWorker {
	return &AdjustmentWorker{
		Source:       src,
		Store:        store,
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled.
func (w *AdjustmentWorker) Run(ctx context.Context) error {
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = 3
	}
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Warn("adjuster: kafka fetch failed", zap.Error(err))
			if delay.Sleep(ctx, 200*time.Millisecond) != nil {
				return nil
			}
			continue
		}

		w.process(ctx, m)

		if err := w.Source.Commit(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Error("adjuster: commit failed",
				zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (w *AdjustmentWorker) process(ctx context.Context, m kafka.Message) {
	var adj model.Adjustment
	if err := json.Unmarshal(m.Value, &adj); err != nil || strings.TrimSpace(adj.ItemID) == "" || adj.Delta == 0 {
		metrics.AdjustmentsTotal.WithLabelValues("poison").Inc()
		logger.Log.Warn("adjuster: skipping bad message",
			zap.Int64("offset", m.Offset), zap.ByteString("value", m.Value), zap.Error(err))
		return
	}

	backoff := w.RetryBackoff
	for attempt := 1; ; attempt++ {
		it, err := w.Store.Adjust(ctx, adj.ItemID, adj.Delta)
		switch {
		case err == nil:
			metrics.AdjustmentsTotal.WithLabelValues("applied").Inc()
			logger.Log.Info("adjuster: applied",
				zap.String("item_id", adj.ItemID), zap.Int64("delta", adj.Delta),
				zap.Int64("quantity", it.Quantity), zap.String("reason", adj.Reason))
			return

		case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrInsufficientQuantity):
			metrics.AdjustmentsTotal.WithLabelValues("rejected").Inc()
			logger.Log.Warn("adjuster: rejected",
				zap.String("item_id", adj.ItemID), zap.Int64("delta", adj.Delta), zap.Error(err))
			return

		case ctx.Err() != nil:
			return

		case attempt >= w.MaxAttempts || !transient(err):
			metrics.AdjustmentsTotal.WithLabelValues("failed").Inc()
			logger.Log.Error("adjuster: giving up",
				zap.String("item_id", adj.ItemID), zap.Int("attempts", attempt), zap.Error(err))
			return
		}

		if delay.Sleep(ctx, backoff) != nil {
			return
		}
		backoff *= 2
	}
}

func transient(err error) bool {
	return errors.Is(err, inventory.ErrPoolExhausted) || inventory.IsStorageError(err)
}
