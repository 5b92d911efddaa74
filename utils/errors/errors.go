package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Details string `json:"details,omitempty"`

	cause error
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the store or driver error behind the API error.
func (e *APIError) Unwrap() error {
	return e.cause
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrNotFound         = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrMethodNotAllowed = NewAPIError("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed)
	ErrInternal         = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrTooManyRequests  = NewAPIError("TOO_MANY_REQUESTS", "Too many requests", http.StatusTooManyRequests)
	ErrStoreUnavailable = NewAPIError("STORE_UNAVAILABLE", "Geo store unavailable", http.StatusServiceUnavailable)
)

// Validation reports missing or malformed client input.
func Validation(message string) *APIError {
	return NewAPIError("INVALID_INPUT", message, http.StatusBadRequest)
}

// Store reports a failed geo store call. The cause is part of the message
// so clients can see what the store said.
func Store(err error, message string) *APIError {
	apiErr := NewAPIError("STORE_ERROR", fmt.Sprintf("%s: %v", message, err), http.StatusInternalServerError, err.Error())
	apiErr.cause = err
	return apiErr
}

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	wrapped := NewAPIError(code, message, status, err.Error())
	wrapped.cause = err
	return wrapped
}

// IsValidation reports whether err is a client-input error.
func IsValidation(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
