package middleware

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/inventory-sim/internal/auth"
	echo "github.com/labstack/echo/v4"
)

const principalKey = "principal"

// JSONError writes the {"error": msg} body used by every failure response.
func JSONError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// PrincipalFromCtx extracts the identity stored by JWTAuth.
func PrincipalFromCtx(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok
}

// JWTAuth authenticates requests using an "Authorization: Bearer <token>" header.
func JWTAuth(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if h == "" {
				return JSONError(c, http.StatusUnauthorized, "missing authorization header")
			}
			scheme, token, ok := strings.Cut(h, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return JSONError(c, http.StatusUnauthorized, "malformed authorization header")
			}

			p, err := tokens.Verify(token)
			if err != nil {
				return JSONError(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}
