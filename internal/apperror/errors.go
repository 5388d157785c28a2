// Package apperror holds the errors services return to handlers. Each one
// carries the HTTP status and a message that is safe to send to API
// clients; the echo error handler renders them as {"type","message"}.
//
// Repository and driver errors never reach a client directly. Services
// pass them through Wrap, which hides anything that is not an AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a client-safe error with a status code.
type AppError struct {
	Code    int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`

	// Internal is logged, never rendered.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return e.Type + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Internal }

func newError(code int, typ, message string) *AppError {
	return &AppError{Code: code, Type: typ, Message: message}
}

// --- Constructors ---

func NewBadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, "bad_request", message)
}

func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "unauthorized", message)
}

func NewForbidden(message string) *AppError {
	return newError(http.StatusForbidden, "forbidden", message)
}

func NewNotFound(message string) *AppError {
	return newError(http.StatusNotFound, "not_found", message)
}

// NewConflict reports a unique constraint hit, e.g. a duplicate product
// name or category tag.
func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, "conflict", message)
}

// NewValidation reports a row the database refused, e.g. test data that
// references a product that does not exist.
func NewValidation(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, "validation_error", message)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	e := newError(http.StatusInternalServerError, "internal_error", "An unexpected error occurred. Please try again.")
	e.Internal = err
	return e
}

// --- Inspection ---

// SafeCode returns the status of the AppError in err's chain, or 500.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err carries a 404.
func IsNotFound(err error) bool {
	return SafeCode(err) == http.StatusNotFound
}

// Wrap passes AppErrors through and turns anything else into an internal
// error. nil stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return NewInternal(err)
}
