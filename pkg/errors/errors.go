package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthenticated
	ErrForbidden
	ErrInternal
	ErrPartialCascade
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewUnauthenticated reports a write attempted with no current identity.
func NewUnauthenticated() *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "not authenticated",
	}
}

// NewPartialCascade reports a cascade delete that failed part-way. The
// operation is safe to retry: already-deleted children are tolerated.
func NewPartialCascade(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrPartialCascade,
		Message: fmt.Sprintf("cascade delete of %s incomplete", resource),
		Err:     err,
	}
}

// CodeOf returns the AppError code of err, or ErrInternal when err is
// not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsNotFound reports whether err carries the ErrNotFound code.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound
}

// IsUnauthenticated reports whether err carries the ErrUnauthenticated code.
func IsUnauthenticated(err error) bool {
	return CodeOf(err) == ErrUnauthenticated
}
