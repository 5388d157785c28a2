package categories

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// Handler handles HTTP requests for categories.
type Handler struct {
	service CategoryService
}

// NewHandler creates a new category handler.
func NewHandler(service CategoryService) *Handler {
	return &Handler{service: service}
}

// List returns categories (GET /categories?all=1).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("all") == "1")
	if err != nil {
		return err
	}
	if list == nil {
		list = []Category{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create creates a category (POST /categories).
func (h *Handler) Create(c echo.Context) error {
	var req CreateCategoryInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	cat, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update applies a partial update (PATCH /categories/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateCategoryInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	cat, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete deactivates a category (DELETE /categories/:id).
func (h *Handler) Delete(c echo.Context) error {
	if _, err := h.service.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
