// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation (slug, email, order number).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates invalid input. Messages wrapped with it are shown
// to the user as-is.
var ErrValidation = errors.New("validation")

// Validationf returns an error wrapping ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
