package module

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"simple", "physics", false},
		{"with separators", "physics-101_v2.final", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"leading dot", ".hidden", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"space", "my module", true},
		{"too long", strings.Repeat("a", MaxLength+1), true},
		{"max length", strings.Repeat("a", MaxLength), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := New(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidModuleName) {
					t.Fatalf("expected ErrInvalidModuleName, got %v", err)
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error family, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n.String() != tc.raw {
				t.Errorf("String() = %q, want %q", n.String(), tc.raw)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	n, err := OrDefault("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.String() != Default {
		t.Errorf("expected %q, got %q", Default, n.String())
	}

	if _, err := OrDefault("../etc"); err == nil {
		t.Fatal("expected error for traversal name")
	}
}

func TestIsZero(t *testing.T) {
	var n Name
	if !n.IsZero() {
		t.Error("zero Name should report IsZero")
	}
	n, _ = New("x")
	if n.IsZero() {
		t.Error("validated Name should not report IsZero")
	}
}
