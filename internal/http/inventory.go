package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/inventory-sim/internal/config"
	"github.com/jmehdipour/inventory-sim/internal/http/middleware"
	"github.com/jmehdipour/inventory-sim/internal/inventory"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/metrics"
	"github.com/jmehdipour/inventory-sim/internal/service/query"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func inventoryHandler(svc *query.Service, cfg config.InventoryConfig) echo.HandlerFunc {
	defLimit, maxLimit := cfg.DefaultPageSize, cfg.MaxPageSize
	if defLimit <= 0 {
		defLimit = 100
	}
	if maxLimit < defLimit {
		maxLimit = max(defLimit, 1000)
	}

	return func(c echo.Context) error {
		p, ok := middleware.PrincipalFromCtx(c)
		if !ok {
			return middleware.JSONError(c, http.StatusUnauthorized, "unauthorized")
		}
		tierLabel := p.Tier.String()

		req := query.Request{
			ItemID: strings.TrimSpace(c.QueryParam("itemId")),
			Page:   1,
			Limit:  defLimit,
		}
		if req.ItemID == "" {
			req.ItemID = strings.TrimSpace(c.QueryParam("item_id"))
		}
		if v := c.QueryParam("page"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				metrics.RequestsTotal.WithLabelValues(tierLabel, "bad_request").Inc()
				return middleware.JSONError(c, http.StatusBadRequest, "page must be a positive integer")
			}
			req.Page = n
		}
		if v := c.QueryParam("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxLimit {
				metrics.RequestsTotal.WithLabelValues(tierLabel, "bad_request").Inc()
				return middleware.JSONError(c, http.StatusBadRequest,
					"limit must be between 1 and "+strconv.Itoa(maxLimit))
			}
			req.Limit = n
		}

		resp, err := svc.Fetch(c.Request().Context(), p.Tier, req)
		if err != nil {
			code, msg, outcome := classify(err)
			metrics.RequestsTotal.WithLabelValues(tierLabel, outcome).Inc()
			if code == http.StatusInternalServerError {
				logger.Log.Error("inventory query failed",
					zap.String("customer_id", p.CustomerID), zap.Error(err))
			}
			return middleware.JSONError(c, code, msg)
		}

		outcome := "ok"
		if req.ItemID != "" && len(resp.Items) == 0 {
			outcome = "not_found"
		}
		metrics.RequestsTotal.WithLabelValues(tierLabel, outcome).Inc()
		return c.JSON(http.StatusOK, resp)
	}
}

func classify(err error) (code int, msg, outcome string) {
	switch {
	case errors.Is(err, inventory.ErrPoolExhausted):
		return http.StatusServiceUnavailable, "inventory temporarily unavailable, try again", "unavailable"
	case errors.Is(err, inventory.ErrInvalidPage):
		return http.StatusBadRequest, err.Error(), "bad_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "request cancelled", "cancelled"
	default:
		return http.StatusInternalServerError, "inventory query failed", "error"
	}
}
