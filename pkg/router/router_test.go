package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/di"
	"ai-character-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct{}

func (fakeLLM) Configured() bool { return true }
func (fakeLLM) Complete(context.Context, ai.ChatRequest) (string, error) {
	return "你认为什么样的行为是正义的？", nil
}

type fakeTTS struct{}

func (fakeTTS) Synthesize(context.Context, ai.SpeechRequest) (*ai.SpeechResult, error) {
	return &ai.SpeechResult{Audio: []byte("ID3-fake-audio"), ContentType: "audio/mpeg"}, nil
}

func testConfig(t *testing.T, ttl time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = "3001"
	cfg.Server.Env = "test"
	cfg.Server.BaseURL = "http://localhost:3001"
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxTokens = 1024
	cfg.TTS.BaseURL = "http://localhost:5050/v1"
	cfg.TTS.DefaultVoice = "zh-CN-YunxiNeural"
	cfg.TTS.DefaultModel = "tts-1"
	cfg.TTS.FallbackHint = "Check if your TTS service is running at http://localhost:5050/v1"
	cfg.Audio.Dir = t.TempDir()
	cfg.Audio.TTL = ttl
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Security.MaxBodySize = 1 << 20
	cfg.OpenAPISchemaPath = "../../api/openapi.yaml"
	return cfg
}

func setup(t *testing.T, ttl time.Duration) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	container, err := di.New(context.Background(), testConfig(t, ttl), logger.Discard(), di.Options{
		LLM: fakeLLM{},
		TTS: fakeTTS{},
	})
	require.NoError(t, err)

	r := New(container)
	r.SetupRoutes()
	t.Cleanup(func() {
		r.Stop()
		_ = container.Close(context.Background())
	})
	return r
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func TestCharacterRoutes(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodGet, "/api/characters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/api/characters/harry-potter", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"harry-potter"`)

	w = serve(r, http.MethodGet, "/api/characters/nobody", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Character not found", w.Body.String())
}

func TestUnknownRoutesAreNotFound(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodPost, "/api/characters/unknown", "{}")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestChatRoute(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodPost, "/api/chat",
		`{"characterId":"socrates","history":[{"role":"user","parts":[{"text":"什么是正义？"}]}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"你认为什么样的行为是正义的？"}`, w.Body.String())
}

func TestTTSRouteServesAudioUntilExpiry(t *testing.T) {
	r := setup(t, 200*time.Millisecond)

	w := serve(r, http.MethodPost, "/api/tts", `{"text":"你好"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AudioURL string `json:"audioUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	u, err := url.Parse(body.AudioURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:3001", u.Host)

	w = serve(r, http.MethodGet, u.Path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID3-fake-audio", w.Body.String())

	assert.Eventually(t, func() bool {
		return serve(r, http.MethodGet, u.Path, "").Code == http.StatusNotFound
	}, 3*time.Second, 20*time.Millisecond)
}

func TestTTSRouteRequiresText(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodPost, "/api/tts", `{"text":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, w.Body.String())
}

func TestOpenAPIValidationRejectsWrongTypes(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodPost, "/api/tts", `{"text":123}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestHealthAndMetrics(t *testing.T) {
	r := setup(t, time.Minute)

	w := serve(r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"audio_storage"`)

	serve(r, http.MethodPost, "/api/chat", `{"characterId":"socrates","history":[]}`)

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat_requests")
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	r := setup(t, time.Minute)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
