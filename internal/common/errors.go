// Package common defines shared constants, sentinel errors and small helpers
// used across the ProjectHub server and its admin tooling. Callers should use
// errors.Is to match the sentinel values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Input and identity errors.
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("email or password is not valid")

	// Access errors.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("permission denied")
	ErrRateLimited     = errors.New("too many requests")

	// Token lifecycle errors.
	ErrTokenInvalid = errors.New("token is not valid or has expired")
	ErrTokenExpired = errors.New("token expired")

	// Outbound side-effect errors. Never surfaced to reset-request callers.
	ErrTransport = errors.New("transport error")

	ErrInternal = errors.New("internal error")
)

// NonFieldErrors is the key used for validation messages that are not tied
// to a single input field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field validation messages. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds a ValidationError with a single message for field.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no messages were collected.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }
