package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is the sentinel every ValidationError unwraps to, so
// callers can match the class without knowing the field.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError reports which input field failed validation and why.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrValidationFailed) hold for every
// ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
