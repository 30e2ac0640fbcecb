package errors

import (
	"fmt"
	"net/http"
)

// Error codes shared by every handler
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeRateLimited   = "RATE_LIMIT_EXCEEDED"
	CodeInternal      = "INTERNAL_ERROR"
	CodeServer        = "SERVER_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithSuggestion attaches an operator hint rendered next to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeBadRequest, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, CodeNotFound, message)
}

// NewTooManyRequestsError creates a 429 error
func NewTooManyRequestsError(message string) *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, message)
}

// NewConfigurationError reports a missing credential or setting. It fails the
// request with a 500 but never the process.
func NewConfigurationError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeConfiguration, message)
}

// NewUpstreamError wraps a failure reported by an upstream service
func NewUpstreamError(message string, cause error) *AppError {
	appErr := NewError(http.StatusInternalServerError, CodeUpstream, message)
	if cause != nil {
		appErr.Details = cause.Error()
	}
	return appErr
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeInternal, message)
}

// Is checks if the target error is of type AppError with the same code
func Is(err error, code string) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	return appErr.Code == code
}
