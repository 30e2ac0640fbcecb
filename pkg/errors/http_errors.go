package errors

import (
	stderrors "errors"
	"net/http"
)

// As unwraps err into an AppError if one is in the chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil || !stderrors.As(err, &appErr) {
		return nil, false
	}
	return appErr, true
}

// FromError converts a standard error to an AppError
// If the error is already an AppError, it is returned as-is
// Otherwise, it is wrapped as an internal server error
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := As(err); ok {
		return appErr
	}

	return NewInternalServerError("An unexpected error occurred").WithDetails(err.Error())
}

// GetStatusCode extracts the HTTP status code from an AppError, returns 500 if not an AppError
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetErrorCode extracts the error code from an AppError, returns "UNKNOWN_ERROR" if not an AppError
func GetErrorCode(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// Body renders the JSON payload returned to clients: {error, details?, suggestion?}
func Body(appErr *AppError) map[string]any {
	body := map[string]any{"error": appErr.Message}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	if appErr.Suggestion != "" {
		body["suggestion"] = appErr.Suggestion
	}
	return body
}
