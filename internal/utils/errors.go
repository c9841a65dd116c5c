package utils

import (
	"errors"
	"fmt"
)

// DegradedServiceMessage is shown to the user whenever the backend cannot
// be reached. The raw transport error is kept for logs only.
const DegradedServiceMessage = "El servicio está temporalmente fuera de servicio. Por favor intenta nuevamente más tarde."

// ErrEmptyPage signals a valid zero-record history page. It is an advisory,
// not a failure: the caller disables forward navigation and keeps going.
var ErrEmptyPage = errors.New("no hay registros para mostrar en esta página")

// ValidationError represents an error occurring during local data validation.
// It is raised before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError for a specific field.
//
// Parameters:
//   - field: The offending field name (wire name).
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
//
// Parameters:
//   - field: The offending field name (wire name).
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// TransportError represents a request that failed outright: the backend was
// unreachable or the connection broke before a status code was produced.
type TransportError struct {
	Err error
}

// Error returns the user-facing degraded-service message, never the raw
// transport text.
func (e *TransportError) Error() string {
	return DegradedServiceMessage
}

// Unwrap exposes the underlying transport failure for logging.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a raw transport failure.
func NewTransportError(err error) error {
	return &TransportError{Err: err}
}

// RemoteError represents a non-2xx response with a structured error body.
type RemoteError struct {
	StatusCode int
	Message    string
	Details    map[string]interface{}
	Path       string
}

// Error returns a message carrying the remote status code and, when the
// backend sent one, its error text.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("error remoto (%d)", e.StatusCode)
	}
	return fmt.Sprintf("error (%d): %s", e.StatusCode, e.Message)
}

// NewRemoteError creates a RemoteError from a parsed error body.
func NewRemoteError(status int, message, path string, details map[string]interface{}) error {
	return &RemoteError{
		StatusCode: status,
		Message:    message,
		Details:    details,
		Path:       path,
	}
}

// DecodeError represents a malformed record token. The detail view degrades
// to unknown fields instead of failing.
type DecodeError struct {
	Err error
}

// Error returns the error message string.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("token de registro inválido: %v", e.Err)
}

// Unwrap exposes the underlying parse failure.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps a token parse failure.
func NewDecodeError(err error) error {
	return &DecodeError{Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemote reports whether err is a RemoteError, returning it when so.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
