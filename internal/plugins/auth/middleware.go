package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// apiKeyContextKey is the Echo context key for the authenticated API key.
const apiKeyContextKey = "api_key"

// GetAPIKey returns the key authenticated for this request, or nil.
func GetAPIKey(c echo.Context) *APIKey {
	key, _ := c.Get(apiKeyContextKey).(*APIKey)
	return key
}

// RequireAPIKey returns middleware that authenticates the request with the
// "Authorization: Bearer <key>" header and stores the key in the context.
func RequireAPIKey(service KeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperror.NewUnauthorized("api key required")
			}
			rawKey, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || rawKey == "" {
				return apperror.NewUnauthorized("invalid authorization format, use: Bearer <key>")
			}

			key, err := service.AuthenticateKey(c.Request().Context(), rawKey)
			if err != nil {
				slog.Warn("api key rejected",
					slog.String("remote_ip", c.RealIP()),
					slog.String("path", c.Request().URL.Path),
				)
				return err
			}
			c.Set(apiKeyContextKey, key)

			// The request context may be cancelled before this finishes.
			go func(id int) {
				if err := service.TouchLastUsed(context.Background(), id); err != nil {
					slog.Warn("failed to record api key use", slog.Int("id", id), slog.Any("error", err))
				}
			}(key.ID)

			return next(c)
		}
	}
}

// RequireRole returns middleware that only lets keys with the given role
// through. Must run after RequireAPIKey.
func RequireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return apperror.NewUnauthorized("api key required")
			}
			if key.Role != role {
				return apperror.NewForbidden("this action requires the " + string(role) + " role")
			}
			return next(c)
		}
	}
}

// RequireWrite is RequireRole(RoleAdmin), used on every mutating route.
func RequireWrite() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin)
}
