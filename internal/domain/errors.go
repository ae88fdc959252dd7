package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrValidation = errors.New("validation error")

	// ErrConfiguration means a required upstream setting (the API key) is
	// missing. No network call is attempted.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport covers connection failures, timeouts and non-2xx
	// responses from the stream source.
	ErrTransport = errors.New("transport error")

	// ErrMalformedFragment marks a single upstream payload that could not be
	// decoded. It is recovered locally; the stream continues.
	ErrMalformedFragment = errors.New("malformed fragment")

	// ErrStreamClosed is returned by an extractor after it has finalized or
	// failed.
	ErrStreamClosed = errors.New("stream closed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
