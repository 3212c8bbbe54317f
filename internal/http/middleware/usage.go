package middleware

import (
	"errors"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/util"
	echo "github.com/labstack/echo/v4"
)

// UsageSink accepts usage events without blocking; false means dropped.
type UsageSink interface {
	Record(ev model.UsageEvent) bool
}

// UsageRecorder emits one usage event per authenticated request, after the
// rest of the chain has produced a status.
func UsageRecorder(sink UsageSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			p, ok := PrincipalFromCtx(c)
			if !ok {
				return err
			}
			status := c.Response().Status
			var he *echo.HTTPError
			if err != nil && errors.As(err, &he) {
				status = he.Code
			}

			sink.Record(model.UsageEvent{
				ID:         util.New(),
				CustomerID: p.CustomerID,
				Tier:       p.Tier.String(),
				Method:     c.Request().Method,
				Path:       c.Path(),
				Status:     uint16(status),
				DurationMs: uint32(time.Since(start).Milliseconds()),
				CreatedAt:  start.UTC(),
			})
			return err
		}
	}
}
