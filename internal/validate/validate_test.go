package validate

import (
	"testing"

	"github.com/dukerupert/carewatch/internal/apperr"
)

type sample struct {
	Name  string   `json:"elderName" validate:"required"`
	Value *float64 `json:"systolic" validate:"required,gte=0"`
	Kind  string   `json:"status" validate:"omitempty,oneof=pending assigned reached"`
}

func ptr(f float64) *float64 { return &f }

func TestStructValid(t *testing.T) {
	if err := Struct(sample{Name: "Asha", Value: ptr(0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructMessages(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"missing name", sample{Value: ptr(120)}, "elderName is required"},
		{"missing number", sample{Name: "Asha"}, "systolic is required"},
		{"negative", sample{Name: "Asha", Value: ptr(-1)}, "systolic must be at least 0"},
		{"bad enum", sample{Name: "Asha", Value: ptr(1), Kind: "done"}, "status must be one of: pending, assigned, reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("kind = %v, want validation", apperr.KindOf(err))
			}
			if got := apperr.Message(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrim(t *testing.T) {
	a, b := "  Asha ", "\tRoom 4\n"
	Trim(&a, &b, nil)
	if a != "Asha" || b != "Room 4" {
		t.Errorf("Trim() = %q, %q", a, b)
	}
}
