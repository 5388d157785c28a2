package productmodules

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts association routes on the authenticated API group.
func RegisterRoutes(api *echo.Group, h *Handler, write echo.MiddlewareFunc) {
	g := api.Group("/product-modules")
	g.GET("", h.List)
	g.POST("", h.Create, write)
	g.PATCH("/:id", h.Update, write)
	g.DELETE("/:id", h.Delete, write)

	api.GET("/products/:id/modules", h.ModulesForProduct)
}
