package middleware // reusable HTTP middleware: authentication, roles and rate limiting

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auction-marketplace/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller's user ID
// and role in the context, where UserID and Role read them back.  secret
// must match the one tokens were signed with.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			id, err := claims.UserID()
			if err != nil {
				return unauthorized(c, "invalid claims")
			}
			c.Set(ctxUserID, id)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": "unauthorized"})
}
