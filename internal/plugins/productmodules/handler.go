package productmodules

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
)

// Handler handles HTTP requests for product/module assignments.
type Handler struct {
	service ProductModuleService
}

// NewHandler creates a new association handler.
func NewHandler(service ProductModuleService) *Handler {
	return &Handler{service: service}
}

// List returns associations (GET /product-modules?all=1&product_id=).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), ListFilter{
		IncludeInactive: c.QueryParam("all") == "1",
		ProductID:       c.QueryParam("product_id"),
	})
	if err != nil {
		return err
	}
	if list == nil {
		list = []ProductModule{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create assigns a module to a product (POST /product-modules). Responds
// 201 for a new row and 200 when an existing row was reactivated.
func (h *Handler) Create(c echo.Context) error {
	var req CreateProductModuleInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	pm, created, err := h.service.Assign(c.Request().Context(), req)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, pm)
}

// Update toggles an association (PATCH /product-modules/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateProductModuleInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	pm, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pm)
}

// Delete deactivates an association (DELETE /product-modules/:id).
func (h *Handler) Delete(c echo.Context) error {
	if _, err := h.service.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ModulesForProduct lists a product's active modules (GET /products/:id/modules).
func (h *Handler) ModulesForProduct(c echo.Context) error {
	list, err := h.service.ModulesForProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []modules.Module{}
	}
	return c.JSON(http.StatusOK, list)
}
