package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("expected nil for nil")
	}

	nf := NewNotFound("product not found")
	wrapped := fmt.Errorf("finding product: %w", nf)
	if got := Wrap(wrapped); got != wrapped {
		t.Errorf("expected AppError chain passed through, got %v", got)
	}

	got := Wrap(sql.ErrConnDone)
	if SafeCode(got) != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", SafeCode(got))
	}
	if !errors.Is(got, sql.ErrConnDone) {
		t.Error("expected driver error kept for logging")
	}
	var appErr *AppError
	if !errors.As(got, &appErr) || appErr.Message == sql.ErrConnDone.Error() {
		t.Error("driver error must not become the client message")
	}
}

func TestSafeCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewBadRequest("x"), http.StatusBadRequest},
		{NewConflict("x"), http.StatusConflict},
		{NewValidation("x"), http.StatusUnprocessableEntity},
		{fmt.Errorf("ctx: %w", NewForbidden("x")), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := SafeCode(tt.err); got != tt.want {
			t.Errorf("SafeCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
	if !IsNotFound(NewNotFound("x")) || IsNotFound(NewBadRequest("x")) {
		t.Error("IsNotFound misclassified")
	}
}
