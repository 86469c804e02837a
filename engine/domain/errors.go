package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrMissingContent  = errors.New("content is empty")
	ErrMissingTitle    = errors.New("title is empty")
	ErrMissingSource   = errors.New("source is empty")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Doc     string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (doc=%q)", e.Wrapped, e.Field, e.Doc)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, doc string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Doc: doc, Wrapped: wrapped}
}
