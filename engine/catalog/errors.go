package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for record eligibility failures.
var (
	ErrNoImage   = errors.New("no high-resolution image")
	ErrNoPrice   = errors.New("missing price")
	ErrEmptyID   = errors.New("empty product id")
	ErrBadVector = errors.New("wrong embedding dimension")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
