package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when a client is used without its credential
var ErrNotConfigured = errors.New("upstream credential is not configured")

// UpstreamError reports a failed call to an upstream service
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error: %d - %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Message)
}

// upstreamErrorFrom converts go-openai errors, keeping the HTTP status when known
func upstreamErrorFrom(service string, err error) *UpstreamError {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Service: service, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Plain-text bodies from local TTS services are more useful than the decode error
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		if msg == "" {
			msg = reqErr.HTTPStatus
		}
		return &UpstreamError{Service: service, StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}

	return &UpstreamError{Service: service, Message: err.Error()}
}
