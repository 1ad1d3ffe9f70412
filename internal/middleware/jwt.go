package middleware // middleware provides the HTTP middleware shared by the API routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// JWTAuth validates a Bearer access token and stores the caller's id
// (uint64), email and role in the Echo context.  Protected handlers read
// them via c.Get(ContextUserID) and friends.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado"})
			}
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token inválido"})
			}

			who, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token inválido"})
			}

			c.Set(ContextUserID, who.UserID)
			c.Set(ContextEmail, who.Email)
			c.Set(ContextRole, who.Role)
			return next(c)
		}
	}
}
