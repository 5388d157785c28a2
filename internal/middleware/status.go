package middleware

import (
	"errors"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// errorStatus returns the status an error will be rendered with, or 0 when
// the error is not a domain error.
func errorStatus(err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}
