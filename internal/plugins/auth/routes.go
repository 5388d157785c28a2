package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the identity and key management routes on the
// authenticated API group. Key management is admin-only.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/me", h.Me)

	keys := api.Group("/keys", RequireRole(RoleAdmin))
	keys.GET("", h.ListKeys)
	keys.POST("", h.CreateKey)
	keys.DELETE("/:id", h.DeactivateKey)
}
