// Package module validates the caller-supplied names that group chunk sets.
package module

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Default is used when an upload carries no module name.
const Default = "demo"

// MaxLength is the maximum module name length in bytes.
const MaxLength = 128

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Name is a validated module name, safe to use as a single path component.
type Name struct {
	value string
}

// New validates raw and returns a Name.
func New(raw string) (Name, error) {
	if raw == "" {
		return Name{}, fmt.Errorf("%w: name is required", domain.ErrInvalidModuleName)
	}
	if len(raw) > MaxLength {
		return Name{}, fmt.Errorf("%w: name too long (max %d)", domain.ErrInvalidModuleName, MaxLength)
	}
	if raw == "." || raw == ".." || !nameRegex.MatchString(raw) {
		return Name{}, fmt.Errorf("%w: %q must be alphanumeric with dots, underscores and hyphens",
			domain.ErrInvalidModuleName, raw)
	}
	return Name{value: raw}, nil
}

// OrDefault validates raw, substituting Default when raw is empty.
func OrDefault(raw string) (Name, error) {
	if raw == "" {
		raw = Default
	}
	return New(raw)
}

// String returns the raw name.
func (n Name) String() string { return n.value }

// IsZero reports whether n was never validated.
func (n Name) IsZero() bool { return n.value == "" }
