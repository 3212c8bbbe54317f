package worker

import (
	"context"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"go.uber.org/zap"
)

// UsageWriter stores a batch of usage events.
type UsageWriter interface {
	InsertBatch(ctx context.Context, events []model.UsageEvent) error
}

// UsageRecorder buffers usage events from request handlers and writes them
// in batches, flushing on size or after BatchWait. Recording never blocks:
// when the buffer is full the event is dropped.
type UsageRecorder struct {
	Writer    UsageWriter
	BatchSize int
	BatchWait time.Duration

	in chan model.UsageEvent
}

func NewUsageRecorder(w UsageWriter, buffer, batchSize int, batchWait time.Duration) *UsageRecorder {
	if buffer <= 0 {
		buffer = 1024
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if batchWait <= 0 {
		batchWait = 2 * time.Second
	}
	return &UsageRecorder{
		Writer:    w,
		BatchSize: batchSize,
		BatchWait: batchWait,
		in:        make(chan model.UsageEvent, buffer),
	}
}

func (r *UsageRecorder) Record(ev model.UsageEvent) bool {
	select {
	case r.in <- ev:
		return true
	default:
		metrics.UsageEventsTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// Run writes batches until ctx is cancelled, then drains what is buffered.
func (r *UsageRecorder) Run(ctx context.Context) {
	tick := time.NewTicker(r.BatchWait)
	defer tick.Stop()

	batch := make([]model.UsageEvent, 0, r.BatchSize)

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.Writer.InsertBatch(ctx, batch); err != nil {
			metrics.UsageEventsTotal.WithLabelValues("failed").Add(float64(len(batch)))
			logger.Log.Error("usage: batch insert failed", zap.Int("events", len(batch)), zap.Error(err))
		} else {
			metrics.UsageEventsTotal.WithLabelValues("written").Add(float64(len(batch)))
			logger.Log.Debug("usage: flushed", zap.Int("events", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				select {
				case ev := <-r.in:
					batch = append(batch, ev)
					if len(batch) >= r.BatchSize {
						flush(fctx)
					}
				default:
					flush(fctx)
					return
				}
			}

		case ev := <-r.in:
			batch = append(batch, ev)
			if len(batch) >= r.BatchSize {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}
	}
}
