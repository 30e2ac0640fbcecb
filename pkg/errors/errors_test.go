package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorUnwrapsAppError(t *testing.T) {
	inner := NewNotFoundError("Character not found")
	wrapped := fmt.Errorf("lookup: %w", inner)

	assert.Same(t, inner, FromError(wrapped))
	assert.Equal(t, http.StatusNotFound, GetStatusCode(wrapped))
	assert.True(t, Is(wrapped, CodeNotFound))
}

func TestConstructorsCarryOnlyResponseFields(t *testing.T) {
	assert.Equal(t, &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeBadRequest,
		Message:    "Invalid request",
	}, NewBadRequestError("Invalid request"))
	assert.Equal(t, &AppError{
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    "Character not found",
	}, NewNotFoundError("Character not found"))
}

func TestFromErrorWrapsPlainError(t *testing.T) {
	appErr := FromError(stderrors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.Equal(t, "disk on fire", appErr.Details)
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(stderrors.New("x")))
}

func TestBodyOmitsEmptyFields(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "Text is required"}, Body(NewBadRequestError("Text is required")))

	upstream := NewUpstreamError("Failed to synthesize speech", stderrors.New("status 502")).
		WithSuggestion("Check the TTS service")
	assert.Equal(t, map[string]any{
		"error":      "Failed to synthesize speech",
		"details":    "status 502",
		"suggestion": "Check the TTS service",
	}, Body(upstream))
}

func TestErrorHandlerRendersFirstError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(NewConfigurationError("LLM_API_KEY is not configured"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/fail", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "LLM_API_KEY is not configured", body["error"])
	assert.NotContains(t, body, "details")
}

func TestRecoveryWithLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RecoveryWithLogger())
	r.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "unexpected error")
}
