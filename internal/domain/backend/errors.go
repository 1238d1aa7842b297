// Package backend provides domain types for talking to the agri marketplace backend.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard domain errors.
var (
	ErrUnauthorized       = errors.New("backend rejected the credentials")
	ErrForbidden          = errors.New("backend denied access")
	ErrNotFound           = errors.New("backend resource not found")
	ErrRateLimited        = errors.New("backend rate limit exceeded")
	ErrServiceUnavailable = errors.New("backend temporarily unavailable")
	ErrInvalidRequest     = errors.New("backend rejected the request")
	ErrInvalidResponse    = errors.New("backend returned an invalid response")
)

// ErrorCode classifies a failed backend call.
type ErrorCode string

const (
	CodeNotAuthenticated ErrorCode = "not_authenticated"
	CodeTokenInvalid     ErrorCode = "token_not_valid"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeNotFound         ErrorCode = "not_found"
	CodeThrottled        ErrorCode = "throttled"
	CodeBadRequest       ErrorCode = "bad_request"
	CodeServerError      ErrorCode = "server_error"
	CodeTransport        ErrorCode = "transport_error"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// IsRetryable returns true for codes that describe transient failures.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case CodeThrottled, CodeServerError, CodeTransport:
		return true
	default:
		return false
	}
}

// CodeForStatus maps an HTTP status to an ErrorCode.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return CodeNotAuthenticated
	case status == http.StatusForbidden:
		return CodePermissionDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusTooManyRequests:
		return CodeThrottled
	case status >= 500:
		return CodeServerError
	default:
		return CodeBadRequest
	}
}

// APIError is a structured failure from the backend.
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"detail"`
	StatusCode int       `json:"-"`
	Path       string    `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend [%s] %s: %d %s", e.Code, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend [%s] %s: %s", e.Code, e.Path, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == CodeNotAuthenticated || e.Code == CodeTokenInvalid || e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.Code == CodePermissionDenied
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrRateLimited:
		return e.Code == CodeThrottled
	case ErrServiceUnavailable:
		return e.Code == CodeServerError || e.Code == CodeTransport
	case ErrInvalidRequest:
		return e.Code == CodeBadRequest
	default:
		return false
	}
}

// IsRetryable returns true if this error is safe to retry.
func (e *APIError) IsRetryable() bool {
	return e.Code.IsRetryable()
}

// NewAPIError creates an APIError for a non-2xx response.
func NewAPIError(path string, statusCode int, code ErrorCode, message string) *APIError {
	if code == "" {
		code = CodeForStatus(statusCode)
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Path:       path,
	}
}

// NewTransportError wraps a network failure that never produced a response.
func NewTransportError(path string, err error) *APIError {
	return &APIError{
		Code:    CodeTransport,
		Message: err.Error(),
		Path:    path,
		Err:     err,
	}
}

// ValidationError reports a backend payload that does not match the expected schema.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid backend payload: %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrInvalidResponse.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
