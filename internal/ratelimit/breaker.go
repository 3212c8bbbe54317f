package ratelimit

import (
	"sync"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"go.uber.org/zap"
)

// BreakerState is exported as the invsim_limiter_breaker_state gauge value.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker guards the shared limiter backend. After threshold consecutive
// backend errors it stops asking the backend for cooldown, then admits one
// trial call whose outcome closes or reopens it.
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	fails     int
	threshold int
	cooldown  time.Duration
	retryAt   time.Time
	trial     bool
	lastErr   error
	now       func() time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 15 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether the backend may be asked for this decision.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Before(b.retryAt) {
			return false
		}
		b.transition(BreakerHalfOpen)
	}
	if b.trial {
		return false
	}
	b.trial = true
	return true
}

// Record feeds back the outcome of a backend call allowed by Allow. A nil
// err counts as a success.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	if err == nil {
		b.fails = 0
		b.transition(BreakerClosed)
		return
	}

	b.lastErr = err
	b.fails++
	if b.state == BreakerHalfOpen || b.fails >= b.threshold {
		b.retryAt = b.now().Add(b.cooldown)
		b.transition(BreakerOpen)
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Open reports whether decisions are currently diverted away from the backend.
func (b *Breaker) Open() bool { return b.State() != BreakerClosed }

// LastError is the most recent backend error, kept after the breaker closes.
func (b *Breaker) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// transition must be called with mu held.
func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	metrics.LimiterBreakerState.Set(float64(to))

	fields := []zap.Field{zap.Stringer("from", from), zap.Stringer("to", to)}
	if to == BreakerOpen {
		fields = append(fields, zap.Int("consecutive_failures", b.fails),
			zap.Time("retry_at", b.retryAt), zap.NamedError("cause", b.lastErr))
		logger.Log.Warn("rate limiter breaker opened", fields...)
		return
	}
	logger.Log.Info("rate limiter breaker state changed", fields...)
}
