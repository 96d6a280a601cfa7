package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidState   = errors.New("no legal transition from current status")
	ErrConflict       = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
)

// Course errors
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInstructorNotFound   = errors.New("instructor not found")
	ErrNotUnassigned        = fmt.Errorf("%w: course is not open for assignment", ErrInvalidState)
	ErrTerminalStatus       = fmt.Errorf("%w: course has reached a terminal status", ErrInvalidState)
	ErrWrongRole            = fmt.Errorf("%w: actor role does not match the current stage", ErrForbidden)
	ErrScopeMismatch        = fmt.Errorf("%w: actor school/department does not match the course", ErrForbidden)
	ErrRequestMismatch      = errors.New("approval does not match the requesting instructor")
	ErrDuplicateAssignment  = fmt.Errorf("%w: course already approved for another instructor this period", ErrConflict)
	ErrStaleVersion         = fmt.Errorf("%w: course was modified concurrently, retry", ErrConflict)
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// ValidationError carries the field that failed and, for arithmetic checks,
// the expected value so the caller can build a message without re-deriving it.
type ValidationError struct {
	Field       string
	Message     string
	Expected    float64
	HasExpected bool
}

func (e *ValidationError) Error() string {
	if e.HasExpected {
		return fmt.Sprintf("%s: %s. Expected: %g", e.Field, e.Message, e.Expected)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a plain field validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewArithmeticError builds a validation error naming the expected value
func NewArithmeticError(field, message string, expected float64) *ValidationError {
	return &ValidationError{Field: field, Message: message, Expected: expected, HasExpected: true}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
