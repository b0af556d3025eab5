package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message.
// All failures in the core are deterministic functions of input and state;
// there are no retryable members in this taxonomy.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewNotFoundError creates a new not found error for a resource id.
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewForbiddenError creates a new forbidden (out-of-scope) error.
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewInternalError creates a new internal error wrapping the cause.
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return codeOf(err) == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return codeOf(err) == ErrCodeValidation
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return codeOf(err) == ErrCodeForbidden
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return codeOf(err) == ErrCodeUnauthorized
}

// GetErrorCode extracts the error code from a domain error.
func GetErrorCode(err error) string {
	if code := codeOf(err); code != "" {
		return code
	}
	return ErrCodeInternal
}

func codeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
