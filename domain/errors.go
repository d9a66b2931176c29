package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeInvalid     ErrorCode = "INVALID"
	ErrCodeValidation  ErrorCode = "VALIDATION"
	ErrCodeAgeNotValid ErrorCode = "AGE_NOT_VALID"
	ErrCodeBadRange    ErrorCode = "BAD_RANGE"
	ErrCodePatch       ErrorCode = "PATCH_FAILED"
	ErrCodeInternal    ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	// Details carries machine-readable context, e.g. the age limit or
	// the per-field messages of a validation failure.
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound   = NewError(ErrCodeNotFound, "User not found")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
)

// UserNotFound reports a missing user identifier.
func UserNotFound(id int64) *Error {
	return NewError(ErrCodeNotFound, fmt.Sprintf("User (id=%d) not found", id))
}

// AgeNotValid reports a birthday that does not satisfy the configured age limit.
func AgeNotValid(limit int) *Error {
	return &Error{
		Code:    ErrCodeAgeNotValid,
		Message: fmt.Sprintf("Age not valid. Minimum value is %d.", limit),
		Details: map[string]any{"limit": limit},
	}
}

// BadRange reports a search window whose start lies after its end.
func BadRange(from, to Date) *Error {
	return NewError(ErrCodeBadRange, fmt.Sprintf("Bad range : %s must be after %s", from, to))
}

// PatchFailed wraps a patch application or conversion failure.
func PatchFailed(err error) *Error {
	return WrapError(ErrCodePatch, "patch failed", err)
}

// FieldErrors collects every rejected field with its messages.
func FieldErrors(fields map[string][]string) *Error {
	details := make(map[string]any, len(fields))
	for name, messages := range fields {
		details[name] = messages
	}
	return &Error{
		Code:    ErrCodeValidation,
		Message: "validation failed",
		Details: details,
	}
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// AgeLimitOf extracts the limit carried by an AGE_NOT_VALID error.
func AgeLimitOf(err error) (int, bool) {
	var dErr *Error
	if !errors.As(err, &dErr) || dErr.Code != ErrCodeAgeNotValid {
		return 0, false
	}
	limit, ok := dErr.Details["limit"].(int)
	return limit, ok
}
