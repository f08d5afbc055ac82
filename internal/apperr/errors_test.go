package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusRoundTrip(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{Invalid("title", "required"), http.StatusBadRequest},
		{ErrBackend, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("delete issue: %w", tt.err)
			if got := Status(wrapped); got != tt.code {
				t.Fatalf("Status() = %d, want %d", got, tt.code)
			}
			back := FromStatus(tt.code, "boom")
			if tt.code == http.StatusBadRequest {
				if !errors.Is(back, ErrValidation) {
					t.Fatalf("FromStatus(%d) = %v, want validation error", tt.code, back)
				}
				return
			}
			if !errors.Is(back, tt.err) {
				t.Fatalf("FromStatus(%d) = %v, want %v", tt.code, back, tt.err)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Invalid("email", "must be a valid address")
	if err.Error() != "email: must be a valid address" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("validation error should match ErrValidation")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("validation error should not match ErrForbidden")
	}
}
