package auth

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// Handler serves API key management and identity endpoints.
type Handler struct {
	service KeyService
}

// NewHandler creates a new auth handler.
func NewHandler(service KeyService) *Handler {
	return &Handler{service: service}
}

// Me returns the identity of the calling key (GET /api/v1/me).
func (h *Handler) Me(c echo.Context) error {
	key := GetAPIKey(c)
	if key == nil {
		return apperror.NewUnauthorized("api key required")
	}
	return c.JSON(http.StatusOK, Identity{Name: key.Name, Role: key.Role, KeyPrefix: key.KeyPrefix})
}

// ListKeys returns all keys (GET /api/v1/keys).
func (h *Handler) ListKeys(c echo.Context) error {
	keys, err := h.service.ListKeys(c.Request().Context())
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []APIKey{}
	}
	return c.JSON(http.StatusOK, keys)
}

// CreateKey creates a key and returns its plaintext once (POST /api/v1/keys).
func (h *Handler) CreateKey(c echo.Context) error {
	var req CreateKeyRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	result, err := h.service.CreateKey(c.Request().Context(), req.Name, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// DeactivateKey disables a key (DELETE /api/v1/keys/:id).
func (h *Handler) DeactivateKey(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apperror.NewBadRequest("invalid key ID")
	}
	if self := GetAPIKey(c); self != nil && self.ID == id {
		return apperror.NewBadRequest("a key cannot deactivate itself")
	}
	if err := h.service.DeactivateKey(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
