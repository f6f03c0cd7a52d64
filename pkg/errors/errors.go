package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// CSV schema errors

var (
	// ErrSchemaMismatch indicates a file header that does not match the adapter
	ErrSchemaMismatch = errors.New("csv header mismatch")

	// ErrFieldCount indicates a row whose field count differs from the header
	ErrFieldCount = errors.New("csv field count mismatch")
)

// Oracle-specific errors

var (
	// ErrOracleUnavailable indicates the scoring oracle could not be reached
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")

	// ErrEmptyResponse indicates the oracle returned no content
	ErrEmptyResponse = errors.New("empty oracle response")

	// ErrRateLimitExceeded indicates the oracle rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// SchemaError wraps a schema violation with file context
type SchemaError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the wrapped error
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError creates a new schema error
func NewSchemaError(path, message string, err error) *SchemaError {
	return &SchemaError{
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
