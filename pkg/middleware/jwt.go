// Package middleware holds the Echo middleware for authentication, role
// gating, rate limiting, and response headers.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/pkg/auth"
	"github.com/edconsult/commitdb/pkg/models"
)

const actorContextKey = "actor"

// JWTMiddleware creates a JWT authentication middleware.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return JWTMiddlewareWithBlacklist(secret, nil)
}

// JWTMiddlewareWithBlacklist creates a JWT authentication middleware that
// also rejects revoked tokens. The validated actor is stored in the request
// context for handlers.
func JWTMiddlewareWithBlacklist(secret string, blacklist *auth.TokenBlacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}
			token := parts[1]

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			// Token kept around for logout.
			c.Set("token", token)
			c.Set(actorContextKey, claims.Actor())

			return next(c)
		}
	}
}

// ActorFromContext returns the authenticated actor stored by JWTMiddleware.
func ActorFromContext(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(models.Actor)
	return actor, ok
}
