package middleware

import (
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
)

const HeaderProcessingTime = "X-Processing-Time"

// ProcessingTime reports wall time spent on the request, in seconds, as a
// response header. The header is written just before the status line.
func ProcessingTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				elapsed := time.Since(start).Seconds()
				c.Response().Header().Set(HeaderProcessingTime, strconv.FormatFloat(elapsed, 'f', 6, 64))
			})
			return next(c)
		}
	}
}
