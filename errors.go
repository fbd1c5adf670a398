package stateagent

import (
	"errors"
	"fmt"
)

// Sentinel errors for stateagent. Use errors.Is to check.
var (
	ErrUnknownField = errors.New("unknown field")
	ErrValidation   = errors.New("validation failed")
	ErrCoercion     = errors.New("type coercion failed")
)

// FieldError is a field-level failure: the name targets no descriptor, or the
// field's validator rejected the value. The message is human-readable and safe
// to send back to the LLM for self-correction.
// Err wraps a sentinel (ErrUnknownField or ErrValidation) for errors.Is/errors.As.
type FieldError struct {
	Field  string
	Reason string
	Err    error // wrapped sentinel for errors.Is/errors.As
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains.
func (e *FieldError) Unwrap() error { return e.Err }

// CoercionError is a value that passed its validator but cannot be converted
// to the field's declared kind.
type CoercionError struct {
	Field string
	Value any
	Kind  Kind
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field '%s': cannot convert '%v' to %s", e.Field, e.Value, e.Kind)
}

func (e *CoercionError) Unwrap() error { return ErrCoercion }

// IsUnknownField returns true if err is or wraps an unknown-field failure.
func IsUnknownField(err error) bool { return errors.Is(err, ErrUnknownField) }

// IsValidationError returns true if err is or wraps a validator rejection.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

// IsCoercionError returns true if err is or wraps a coercion failure.
func IsCoercionError(err error) bool { return errors.Is(err, ErrCoercion) }
