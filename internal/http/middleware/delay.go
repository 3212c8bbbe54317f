package middleware

import (
	"net/http"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/delay"
	echo "github.com/labstack/echo/v4"
)

// Delay waits out the simulated latency for the caller's tier, judging the
// peak window by now (default time.Now). A request cancelled while waiting
// gets 408; its quota charge stands.
func Delay(policy delay.Policy, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromCtx(c)
			if !ok {
				return JSONError(c, http.StatusUnauthorized, "unauthorized")
			}
			if err := policy.Wait(c.Request().Context(), p.Tier, now()); err != nil {
				return JSONError(c, http.StatusRequestTimeout, "request cancelled")
			}
			return next(c)
		}
	}
}
