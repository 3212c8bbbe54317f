// Package tier holds the fixed table of customer service classes.
package tier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jmehdipour/inventory-sim/internal/model"
)

var ErrUnknownTier = errors.New("unknown tier")

// Limits is what a tier buys: requests per hour and an informational priority.
type Limits struct {
	RateLimit int `json:"rate_limit"`
	Priority  int `json:"priority"`
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	tiers map[model.Tier]Limits
	top   model.Tier
}

// Default returns the registry with the three built-in tiers.
func Default() *Registry {
	r, err := New(map[model.Tier]Limits{
		model.TierStandard:   {RateLimit: 30, Priority: 1},
		model.TierPremium:    {RateLimit: 100, Priority: 2},
		model.TierEnterprise: {RateLimit: 300, Priority: 3},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a registry. Rate limits must strictly increase with priority.
func New(tiers map[model.Tier]Limits) (*Registry, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tier: empty registry")
	}
	if err := Validate(tiers); err != nil {
		return nil, err
	}

	r := &Registry{tiers: make(map[model.Tier]Limits, len(tiers))}
	best := -1
	for t, l := range tiers {
		r.tiers[t] = l
		if l.Priority > best {
			best = l.Priority
			r.top = t
		}
	}
	return r, nil
}

// Validate checks the ordering invariant between priority and rate limit.
func Validate(tiers map[model.Tier]Limits) error {
	names := make([]model.Tier, 0, len(tiers))
	for t, l := range tiers {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownTier, t)
		}
		if l.RateLimit <= 0 {
			return fmt.Errorf("tier %s: rate limit must be positive", t)
		}
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		return tiers[names[i]].Priority < tiers[names[j]].Priority
	})
	for i := 1; i < len(names); i++ {
		prev, cur := tiers[names[i-1]], tiers[names[i]]
		if cur.Priority == prev.Priority || cur.RateLimit <= prev.RateLimit {
			return fmt.Errorf("tier %s: rate limit must increase with priority", names[i])
		}
	}
	return nil
}

func (r *Registry) Lookup(t model.Tier) (Limits, error) {
	l, ok := r.tiers[t]
	if !ok {
		return Limits{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return l, nil
}

// Top is the highest-priority tier.
func (r *Registry) Top() model.Tier { return r.top }

func (r *Registry) IsTop(t model.Tier) bool { return t == r.top }
