// Package ratelimit enforces per-customer hourly request quotas. Windows are
// fixed calendar hours: a new hour starts from zero, nothing carries over.
package ratelimit

import (
	"context"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
)

// Limiter counts one request against the customer's quota for the hour
// containing now. Denied requests are not counted. Implementations must be
// safe for concurrent use.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, customerID string, tier model.Tier, now time.Time) (Decision, error)
}

// Decision is the outcome of one check, with data for response headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time // start of the next hour bucket
}

// RetryAfter is the time left until the window resets.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// HourBucket is the integer epoch hour containing t.
func HourBucket(t time.Time) int64 {
	return t.Unix() / 3600
}

func bucketEnd(bucket int64) time.Time {
	return time.Unix((bucket+1)*3600, 0)
}

func decide(allowed bool, limit, count int, bucket int64) Decision {
	return Decision{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   bucketEnd(bucket),
	}
}
