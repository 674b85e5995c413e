// Package errors defines the error taxonomy for the matching engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific failure class in the matching pipeline.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the triggering item id does not resolve to a stored record.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeProvider indicates the embedding endpoint is unavailable or returned malformed data.
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
	// ErrCodePersistence indicates a store read/write failure.
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
	// ErrCodeDelivery indicates a message dispatch failure for a single match row.
	ErrCodeDelivery ErrorCode = "DELIVERY_ERROR"
)

// EngineError represents a structured error for pipeline operations.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *EngineError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(msg string) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Provider creates a provider error.
func Provider(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeProvider, Message: msg, Cause: cause}
}

// Persistence creates a persistence error.
func Persistence(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodePersistence, Message: msg, Cause: cause}
}

// Delivery creates a delivery error.
func Delivery(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeDelivery, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the empty code for errors without one.
func GetCodeFromError(err error) ErrorCode {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Code
	}
	return ""
}
