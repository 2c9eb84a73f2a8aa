package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("elderName is required"), http.StatusBadRequest},
		{"not found", NotFound("SOS alert not found"), http.StatusNotFound},
		{"conflict", Conflict("already assigned"), http.StatusConflict},
		{"unauthorized", Unauthorized("bad code"), http.StatusUnauthorized},
		{"forbidden", Forbidden("role"), http.StatusForbidden},
		{"unavailable", Unavailable("db down", errors.New("ping")), http.StatusServiceUnavailable},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("assign: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	if got := Message(errors.New("sqlite: disk I/O error")); got != "internal server error" {
		t.Errorf("Message() = %q, want generic message", got)
	}
	if got := Message(Validation("location is required")); got != "location is required" {
		t.Errorf("Message() = %q, want %q", got, "location is required")
	}
}

func TestUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("database not connected", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Unavailable to wrap its cause")
	}
	if !Is(err, KindUnavailable) {
		t.Error("expected KindUnavailable")
	}
}
