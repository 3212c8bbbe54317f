package http

import (
	"net/http"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/version"
	echo "github.com/labstack/echo/v4"
)

func healthHandler(now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"version":   version.Version,
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	}
}
