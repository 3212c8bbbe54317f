package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/auth"
	"github.com/jmehdipour/inventory-sim/internal/http/middleware"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// loginRequest accepts both snake_case and camelCase field names.
type loginRequest struct {
	CustomerID      string `json:"customer_id"`
	APIKey          string `json:"api_key"`
	CustomerIDCamel string `json:"customerId"`
	APIKeyCamel     string `json:"apiKey"`
}

func (r loginRequest) credentials() (string, string) {
	id, key := r.CustomerID, r.APIKey
	if id == "" {
		id = r.CustomerIDCamel
	}
	if key == "" {
		key = r.APIKeyCamel
	}
	return strings.TrimSpace(id), key
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Tier        string    `json:"tier"`
}

func loginHandler(authn *auth.Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return middleware.JSONError(c, http.StatusBadRequest, "invalid request body")
		}
		id, key := req.credentials()
		if id == "" || key == "" {
			return middleware.JSONError(c, http.StatusUnauthorized, "invalid customer id or api key")
		}

		sess, err := authn.Login(c.Request().Context(), id, key)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return middleware.JSONError(c, http.StatusUnauthorized, "invalid customer id or api key")
		case err != nil:
			logger.Log.Error("login failed", zap.String("customer_id", id), zap.Error(err))
			return middleware.JSONError(c, http.StatusInternalServerError, "login failed")
		}

		return c.JSON(http.StatusOK, loginResponse{
			AccessToken: sess.Token,
			TokenType:   "bearer",
			ExpiresAt:   sess.ExpiresAt.UTC(),
			Tier:        sess.Tier.String(),
		})
	}
}
