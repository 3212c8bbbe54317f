// Package delay injects simulated processing latency before inventory access.
package delay

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/model"
)

// Policy blocks for the simulated cost of a request. It returns early with
// ctx.Err() when the request is cancelled.
type Policy interface {
	Wait(ctx context.Context, tier model.Tier, now time.Time) error
}

// Noop never waits.
type Noop struct{}

func (Noop) Wait(ctx context.Context, _ model.Tier, _ time.Time) error { return ctx.Err() }

// PeakWindow is an inclusive range of local hours, e.g. 9..17.
type PeakWindow struct {
	StartHour int
	EndHour   int
}

func (p PeakWindow) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= p.StartHour && h <= p.EndHour
}

// Tiered waits a per-tier base delay; inside the peak window an extra delay
// is added with fixed probability, whatever the tier.
type Tiered struct {
	Base        map[model.Tier]time.Duration
	Peak        PeakWindow
	Probability float64
	Extra       time.Duration

	// Rand returns a value in [0,1). Defaults to math/rand.
	Rand func() float64
}

// DefaultTiered uses the stock timings: 500/200/100ms and a 20%
// chance of +2s between 09:00 and 17:59.
func DefaultTiered() *Tiered {
	return &Tiered{
		Base: map[model.Tier]time.Duration{
			model.TierStandard:   500 * time.Millisecond,
			model.TierPremium:    200 * time.Millisecond,
			model.TierEnterprise: 100 * time.Millisecond,
		},
		Peak:        PeakWindow{StartHour: 9, EndHour: 17},
		Probability: 0.2,
		Extra:       2 * time.Second,
	}
}

// Duration computes the delay for one request. peak reports whether the
// extra delay was applied.
func (p *Tiered) Duration(tier model.Tier, now time.Time) (d time.Duration, peak bool) {
	d = p.Base[tier]
	if p.Extra > 0 && p.Probability > 0 && p.Peak.Contains(now) {
		r := p.Rand
		if r == nil {
			r = rand.Float64
		}
		if r() < p.Probability {
			d += p.Extra
			peak = true
		}
	}
	return d, peak
}

func (p *Tiered) Wait(ctx context.Context, tier model.Tier, now time.Time) error {
	d, peak := p.Duration(tier, now)
	metrics.SimulatedDelay.WithLabelValues(tier.String(), strconv.FormatBool(peak)).Observe(d.Seconds())
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
