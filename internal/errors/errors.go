package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of session error.
type ErrorCode string

const (
	// ErrCodeTransport indicates a network failure or a non-2xx response from the identity service.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeApplication indicates a 2xx response whose payload declared success=false.
	ErrCodeApplication ErrorCode = "application"
	// ErrCodeCorruption indicates an unparsable or partially missing durable record.
	ErrCodeCorruption ErrorCode = "corruption"
	// ErrCodeValidation indicates invalid caller input.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeCanceled indicates the session moved on before the operation could commit.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeUnimplemented indicates an operation that has no server support yet.
	ErrCodeUnimplemented ErrorCode = "unimplemented"
	// ErrCodeInternal indicates a local failure (storage, encoding).
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is the human-readable message shown to the user
	Message string
	// Cause is the underlying error (optional)
	Cause error
	// Field is the input field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface. When the cause carries the same text
// as the message (an HTTP error whose server message was promoted) it is not repeated.
func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Transport creates a Transport error that keeps the cause for inspection.
func Transport(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: message,
		Cause:   cause,
	}
}

// Application creates an Application error carrying the server message verbatim.
func Application(message string) *AppError {
	return &AppError{
		Code:    ErrCodeApplication,
		Message: message,
	}
}

// Corruption creates a Corruption error.
func Corruption(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeCorruption,
		Message: message,
		Cause:   cause,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Canceled creates a new Canceled error.
func Canceled(message string) *AppError {
	return &AppError{
		Code:    ErrCodeCanceled,
		Message: message,
	}
}

// Unimplemented creates a new Unimplemented error.
func Unimplemented(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnimplemented,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsApplication checks if an error is an Application error.
func IsApplication(err error) bool {
	return isCode(err, ErrCodeApplication)
}

// IsCorruption checks if an error is a Corruption error.
func IsCorruption(err error) bool {
	return isCode(err, ErrCodeCorruption)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsUnimplemented checks if an error is an Unimplemented error.
func IsUnimplemented(err error) bool {
	return isCode(err, ErrCodeUnimplemented)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage returns the message to display next to a form. For an AppError
// it is the Message field alone; otherwise the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
