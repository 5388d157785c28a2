package products

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// Handler handles HTTP requests for products. Handlers are thin: bind
// request, call service, render response.
type Handler struct {
	service ProductService
}

// NewHandler creates a new product handler.
func NewHandler(service ProductService) *Handler {
	return &Handler{service: service}
}

// List returns products (GET /products). ?all=1 includes inactive ones.
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("all") == "1")
	if err != nil {
		return err
	}
	if list == nil {
		list = []Product{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create creates a product (POST /products).
func (h *Handler) Create(c echo.Context) error {
	var req CreateProductInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	p, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Update applies a partial update (PATCH /products/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateProductInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	p, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete deactivates a product (DELETE /products/:id).
func (h *Handler) Delete(c echo.Context) error {
	if _, err := h.service.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder renumbers products in one batch (PUT /products/order). The body
// is a JSON array of {id, display_order}.
func (h *Handler) Reorder(c echo.Context) error {
	var entries []OrderEntry
	if err := json.NewDecoder(c.Request().Body).Decode(&entries); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	list, err := h.service.Reorder(c.Request().Context(), entries)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}
