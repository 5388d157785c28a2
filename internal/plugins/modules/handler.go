package modules

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// Handler handles HTTP requests for modules.
type Handler struct {
	service ModuleService
}

// NewHandler creates a new module handler.
func NewHandler(service ModuleService) *Handler {
	return &Handler{service: service}
}

// List returns modules (GET /modules?all=1).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("all") == "1")
	if err != nil {
		return err
	}
	if list == nil {
		list = []Module{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create creates a module (POST /modules).
func (h *Handler) Create(c echo.Context) error {
	var req CreateModuleInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	m, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Update applies a partial update (PATCH /modules/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateModuleInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	m, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Delete deactivates a module (DELETE /modules/:id).
func (h *Handler) Delete(c echo.Context) error {
	if _, err := h.service.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
