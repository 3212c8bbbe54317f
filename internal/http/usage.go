package http

import (
	"net/http"
	"strconv"

	"github.com/jmehdipour/inventory-sim/internal/http/middleware"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func listUsageHandler(repo repository.UsageRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := middleware.PrincipalFromCtx(c)
		if !ok {
			return middleware.JSONError(c, http.StatusUnauthorized, "unauthorized")
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		events, err := repo.ListByCustomer(c.Request().Context(), p.CustomerID, limit, offset)
		if err != nil {
			logger.Log.Error("usage list failed", zap.String("customer_id", p.CustomerID), zap.Error(err))
			return middleware.JSONError(c, http.StatusInternalServerError, "query failed")
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(events),
			"results": events,
		})
	}
}
