package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/tier"
	"github.com/redis/go-redis/v9"
)

// checkAndIncr compares before INCR so a denied request leaves the counter
// untouched. Returns {allowed, count}.
var checkAndIncr = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisLimiter shares windows between instances through Redis. Keys look
// like rl:cust:{customer}:{epochHour} and expire after two hours.
type RedisLimiter struct {
	rdb    redis.Scripter
	tiers  *tier.Registry
	prefix string
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(rdb redis.Scripter, tiers *tier.Registry, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "rl:cust:"
	}
	return &RedisLimiter{rdb: rdb, tiers: tiers, prefix: keyPrefix}
}

func (r *RedisLimiter) key(customerID string, bucket int64) string {
	return r.prefix + customerID + ":" + strconv.FormatInt(bucket, 10)
}

func (r *RedisLimiter) CheckAndIncrement(ctx context.Context, customerID string, t model.Tier, now time.Time) (Decision, error) {
	limits, err := r.tiers.Lookup(t)
	if err != nil {
		return Decision{}, err
	}
	bucket := HourBucket(now)

	res, err := checkAndIncr.Run(ctx, r.rdb, []string{r.key(customerID, bucket)},
		limits.RateLimit, int((2 * time.Hour).Seconds())).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("redis rate limit: unexpected reply %v", res)
	}
	return decide(res[0] == 1, limits.RateLimit, int(res[1]), bucket), nil
}
