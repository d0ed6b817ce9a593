package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/auth"
)

const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

// RequireAuth returns a middleware that verifies the bearer token. Websocket
// clients that cannot set headers may pass it as the token query parameter.
func RequireAuth(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := jwtManager.Validate(tokenFromRequest(c))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserEmail, claims.Email)
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("token")
}
