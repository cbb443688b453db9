package service

import (
	"errors"
	"fmt"
)

// Common error types returned by application services.
var (
	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrJobNotFound indicates that the upload job does not exist.
	ErrJobNotFound = errors.New("upload job not found")

	// ErrUploadNotFound indicates that the upload does not exist.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrInvalidAction indicates an unrecognized review action.
	ErrInvalidAction = errors.New("invalid review action")

	// ErrInvalidUpload indicates the submitted upload failed validation.
	ErrInvalidUpload = errors.New("invalid upload")
)

// ServiceError wraps errors from application services with additional
// context. This allows consumers to differentiate between different types
// of service errors using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_action", "submit_upload")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
