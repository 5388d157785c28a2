package testdata

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// Handler handles HTTP requests for test data.
type Handler struct {
	service TestDataService
}

// NewHandler creates a new test data handler.
func NewHandler(service TestDataService) *Handler {
	return &Handler{service: service}
}

// List returns filtered test data, newest first
// (GET /test-data?product_id=&module_id=&category_id=&search=).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), FilterFromValues(c.QueryParams()))
	if err != nil {
		return err
	}
	if list == nil {
		list = []TestData{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create creates a test case (POST /test-data).
func (h *Handler) Create(c echo.Context) error {
	var req CreateTestDataInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	td, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, td)
}

// Update applies a partial update (PATCH /test-data/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateTestDataInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	td, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, td)
}

// Delete removes a test case permanently (DELETE /test-data/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
