package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/tier"
	"go.uber.org/zap"
)

// FallbackLimiter asks primary (Redis) while it is healthy and secondary
// (memory) when primary fails or its breaker is open. Counts taken by one
// backend are not visible to the other.
type FallbackLimiter struct {
	primary   Limiter
	secondary Limiter
	br        *Breaker
}

var _ Limiter = (*FallbackLimiter)(nil)

func NewFallbackLimiter(primary, secondary Limiter, br *Breaker) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, secondary: secondary, br: br}
}

func (f *FallbackLimiter) CheckAndIncrement(ctx context.Context, customerID string, t model.Tier, now time.Time) (Decision, error) {
	if !f.br.Allow() {
		metrics.LimiterFallbackTotal.WithLabelValues("open").Inc()
		return f.secondary.CheckAndIncrement(ctx, customerID, t, now)
	}

	d, err := f.primary.CheckAndIncrement(ctx, customerID, t, now)
	if err == nil || errors.Is(err, tier.ErrUnknownTier) {
		f.br.Record(nil)
		return d, err
	}

	f.br.Record(err)
	metrics.LimiterFallbackTotal.WithLabelValues("error").Inc()
	logger.Log.Warn("primary rate limiter failed, using fallback",
		zap.String("customer_id", customerID), zap.Error(err))
	return f.secondary.CheckAndIncrement(ctx, customerID, t, now)
}
