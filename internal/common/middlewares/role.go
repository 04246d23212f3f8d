package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/pkg/utils"
)

// RoleAdmin mirrors accounts.RoleAdmin; declared here to keep the
// middleware free of a models import cycle.
const RoleAdmin = "admin"

// RequireRole rejects requests whose JWT role is not in the allowed set.
// Admins pass every gate.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawClaims := c.Get(string(ContextKeyClaims))
			if rawClaims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status":  http.StatusUnauthorized,
					"message": "Missing or invalid JWT claims",
					"data":    nil,
				})
			}
			claims, ok := rawClaims.(*utils.Claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status":  http.StatusUnauthorized,
					"message": "Invalid JWT claims format",
					"data":    nil,
				})
			}

			if claims.Role == RoleAdmin {
				return next(c)
			}
			for _, role := range allowedRoles {
				if claims.Role == role {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"status":  http.StatusForbidden,
				"message": "You do not have access to this resource",
				"data":    nil,
			})
		}
	}
}
