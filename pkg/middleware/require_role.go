package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/pkg/models"
)

// RequireRoles ensures the authenticated actor holds one of the given roles.
// Must run after JWTMiddleware.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "unauthorized",
					Message: "Authentication required",
				})
			}

			if !allowed[actor.Role] {
				return c.JSON(http.StatusForbidden, models.ErrorResponse{
					Error:   "forbidden",
					Message: "Insufficient role for this operation",
				})
			}

			return next(c)
		}
	}
}

// RequireAdmin ensures the actor is an admin.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRoles(models.RoleAdmin)
}
