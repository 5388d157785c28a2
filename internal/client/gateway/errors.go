package gateway

import (
	"errors"
	"fmt"
)

// ValidationError means the server rejected a request (any 4xx). Retrying
// the same request will not help.
type ValidationError struct {
	Method string
	Path   string
	Status int

	// Type and Message come from the server's error body.
	Type    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s rejected (%d %s): %s", e.Method, e.Path, e.Status, e.Type, e.Message)
}

// TransportError means the request did not produce a usable answer: the
// network failed, the server returned 5xx, or the body could not be decoded.
type TransportError struct {
	Method string
	Path   string

	// Status is 0 when no response was received.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}
