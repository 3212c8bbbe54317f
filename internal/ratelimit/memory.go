package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/tier"
)

// window is one customer's counter. Its own mutex serializes that customer's
// requests so different customers never wait on each other.
type window struct {
	mu      sync.Mutex
	bucket  int64
	count   int
	evicted bool
}

// MemoryLimiter keeps windows in process memory; they are lost on restart
// and not shared between instances.
type MemoryLimiter struct {
	tiers *tier.Registry

	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	closed  bool
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter starts a background sweep of windows from past hours when
// cleanupInterval is positive.
func NewMemoryLimiter(tiers *tier.Registry, cleanupInterval time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		tiers:   tiers,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.cleanup(cleanupInterval)
	}
	return m
}

func (m *MemoryLimiter) CheckAndIncrement(_ context.Context, customerID string, t model.Tier, now time.Time) (Decision, error) {
	limits, err := m.tiers.Lookup(t)
	if err != nil {
		return Decision{}, err
	}
	bucket := HourBucket(now)

	for {
		w := m.window(customerID)
		w.mu.Lock()
		if w.evicted {
			w.mu.Unlock()
			continue
		}

		if w.bucket != bucket {
			w.bucket = bucket
			w.count = 0
		}
		if w.count >= limits.RateLimit {
			d := decide(false, limits.RateLimit, w.count, bucket)
			w.mu.Unlock()
			return d, nil
		}
		w.count++
		d := decide(true, limits.RateLimit, w.count, bucket)
		w.mu.Unlock()
		return d, nil
	}
}

func (m *MemoryLimiter) window(customerID string) *window {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[customerID]
	if !ok {
		w = &window{}
		m.windows[customerID] = w
	}
	return w
}

// Close stops the background sweep.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

func (m *MemoryLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.evictBefore(HourBucket(now))
		}
	}
}

// evictBefore drops windows whose bucket is older than current.
func (m *MemoryLimiter) evictBefore(current int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, w := range m.windows {
		w.mu.Lock()
		if w.bucket < current {
			w.evicted = true
			delete(m.windows, id)
			n++
		}
		w.mu.Unlock()
	}
	return n
}
