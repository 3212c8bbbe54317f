package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/ratelimit"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RateLimitConfig wires the hourly quota check.
type RateLimitConfig struct {
	Limiter ratelimit.Limiter
	Now     func() time.Time // default time.Now
}

// RateLimitMiddleware charges one request against the caller's hourly quota.
// It expects the principal in echo.Context (set by JWTAuth).
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromCtx(c)
			if !ok {
				return JSONError(c, http.StatusUnauthorized, "unauthorized")
			}

			now := cfg.Now()
			d, err := cfg.Limiter.CheckAndIncrement(c.Request().Context(), p.CustomerID, p.Tier, now)
			if err != nil {
				logger.Log.Error("rate limit check failed",
					zap.String("customer_id", p.CustomerID), zap.Error(err))
				return JSONError(c, http.StatusInternalServerError, "rate limit check failed")
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(p.Tier.String()).Inc()
				secs := int(math.Ceil(d.RetryAfter(now).Seconds()))
				h.Set("Retry-After", strconv.Itoa(max(secs, 1)))
				return JSONError(c, http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
