package products

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts product routes on the authenticated API group.
// write guards every mutating route.
func RegisterRoutes(api *echo.Group, h *Handler, write echo.MiddlewareFunc) {
	g := api.Group("/products")
	g.GET("", h.List)
	g.POST("", h.Create, write)
	g.PUT("/order", h.Reorder, write)
	g.PATCH("/:id", h.Update, write)
	g.DELETE("/:id", h.Delete, write)
}
