package testdata

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts test data routes on the authenticated API group.
func RegisterRoutes(api *echo.Group, h *Handler, write echo.MiddlewareFunc) {
	g := api.Group("/test-data")
	g.GET("", h.List)
	g.POST("", h.Create, write)
	g.PATCH("/:id", h.Update, write)
	g.DELETE("/:id", h.Delete, write)
}
