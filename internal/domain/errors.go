package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals bad caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized signals a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmbeddingProviderError signals an embedding provider failure (status, network, timeout).
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDatabase signals a store read or write failure.
	ErrDatabase = errors.New("database error")
	// ErrItemNotFound signals a write against an unknown item id.
	ErrItemNotFound = errors.New("item not found")
	// ErrVectorDimMismatch signals a vector whose length differs from the store's dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrSearch wraps provider or store failures raised while serving a search.
	ErrSearch = errors.New("search failed")
)

// ValidationError carries the offending field together with ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
