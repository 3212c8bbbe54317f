package inventory

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"golang.org/x/sync/semaphore"
)

var ErrPoolExhausted = errors.New("connection pool exhausted")

// Pool bounds concurrent backend access, standing in for a limited number
// of database connections.
//
// With AcquireTimeout == 0 a full pool fails immediately. A positive timeout
// waits at most that long for a slot before failing.
type Pool struct {
	sem            *semaphore.Weighted
	size           int
	acquireTimeout time.Duration
	inUse          atomic.Int64
}

func NewPool(size int, acquireTimeout time.Duration) *Pool {
	if size <= 0 {
		size = 20
	}
	return &Pool{
		sem:            semaphore.NewWeighted(int64(size)),
		size:           size,
		acquireTimeout: acquireTimeout,
	}
}

// Acquire takes one slot. Callers must Release it exactly once.
func (p *Pool) Acquire(ctx context.Context) error {
	if p.acquireTimeout <= 0 {
		if !p.sem.TryAcquire(1) {
			metrics.PoolExhaustedTotal.Inc()
			return ErrPoolExhausted
		}
	} else {
		wctx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
		if err := p.sem.Acquire(wctx, 1); err != nil {
			// caller cancellation is not exhaustion
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.PoolExhaustedTotal.Inc()
			return ErrPoolExhausted
		}
	}
	metrics.PoolInUse.Set(float64(p.inUse.Add(1)))
	return nil
}

func (p *Pool) Release() {
	metrics.PoolInUse.Set(float64(p.inUse.Add(-1)))
	p.sem.Release(1)
}

func (p *Pool) Size() int { return p.size }

func (p *Pool) InUse() int { return int(p.inUse.Load()) }
