// Package apperrors defines the error taxonomy shared by controllers and
// handlers. Controllers wrap these sentinels (directly or through
// logger.ErrorWithType) so the HTTP layer can map them to status codes
// with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized means no identity could be resolved for the request
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the identity resolved but lacks the required role
	// or ownership
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means a referenced entity is absent or inactive
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a malformed, missing, or out-of-range field
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a state-machine precondition or uniqueness
	// constraint was violated, including a lost race
	ErrConflict = errors.New("conflict")
)

// FieldError is one validation violation, named well enough for the
// caller to fix the request
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// ValidationErrors collects every violation found in a request instead of
// stopping at the first. It unwraps to ErrInvalidInput.
type ValidationErrors struct {
	Violations []FieldError
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

func (v *ValidationErrors) Add(field, reason string) {
	v.Violations = append(v.Violations, FieldError{Field: field, Reason: reason})
}

func (v *ValidationErrors) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Violations) > 0
}

// ErrOrNil returns the collection as an error when any violation was
// recorded, nil otherwise
func (v *ValidationErrors) ErrOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Violations))
	for _, violation := range v.Violations {
		parts = append(parts, violation.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), strings.Join(parts, "; "))
}

func (v *ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}
