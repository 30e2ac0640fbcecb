package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposedOnHandler(t *testing.T) {
	m, err := NewMetrics("test")
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	ctx := context.Background()
	m.RecordChat(ctx, "ok")
	m.RecordSpeech(ctx, "upstream_error")
	m.ObserveUpstream(ctx, "llm", 120*time.Millisecond, nil)
	m.ArtifactCreated(ctx, 2048)
	m.ArtifactDeleted(ctx, errors.New("permission denied"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "chat_requests")
	assert.Contains(t, body, "tts_requests")
	assert.Contains(t, body, "upstream_request_duration")
	assert.Contains(t, body, "audio_artifacts_created")
	assert.Contains(t, body, "audio_artifacts_deleted")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordChat(ctx, "ok")
		m.RecordSpeech(ctx, "ok")
		m.ObserveUpstream(ctx, "tts", time.Second, nil)
		m.ArtifactCreated(ctx, 1)
		m.ArtifactDeleted(ctx, nil)
	})
	assert.NoError(t, m.Shutdown(ctx))
}

func TestSetupTracingWithoutExporter(t *testing.T) {
	shutdown, err := SetupTracing("test", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
