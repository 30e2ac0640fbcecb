package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-character-chat/backend/pkg/middleware"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ai-character-chat/backend/ai"

// ClientConfig configures an OpenAI-compatible upstream
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a whole upstream call; zero leaves it unbounded
	Timeout time.Duration
}

// requestIDTransport forwards the inbound request ID so upstream logs can be correlated
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id := middleware.GetRequestID(req.Context()); id != "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", id)
	}
	return t.base.RoundTrip(req)
}

// appErrorTransport turns a 2xx JSON body carrying a top-level error object
// into an UpstreamError. Some OpenAI-compatible providers report quota and
// moderation failures this way.
type appErrorTransport struct {
	base    http.RoundTripper
	service string
}

type appErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (t appErrorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 ||
		!strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	var payload appErrorBody
	if sonic.Unmarshal(body, &payload) == nil && payload.Error != nil {
		msg := payload.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, &UpstreamError{Service: t.service, StatusCode: resp.StatusCode, Message: msg}
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// NewHTTPClient builds the client shared by every upstream call
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: requestIDTransport{base: http.DefaultTransport},
	}
}

func newOpenAIClient(cfg ClientConfig, transport func(http.RoundTripper) http.RoundTripper) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	httpClient := NewHTTPClient(cfg.Timeout)
	if transport != nil {
		httpClient.Transport = transport(httpClient.Transport)
	}
	clientConfig.HTTPClient = httpClient
	return openai.NewClientWithConfig(clientConfig)
}

// OpenAIChatClient talks to any OpenAI-compatible chat-completion endpoint
type OpenAIChatClient struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewOpenAIChatClient creates a chat client; an empty key yields an unconfigured client
func NewOpenAIChatClient(cfg ClientConfig) *OpenAIChatClient {
	return &OpenAIChatClient{
		client: newOpenAIClient(cfg, func(base http.RoundTripper) http.RoundTripper {
			return appErrorTransport{base: base, service: "LLM"}
		}),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// Configured reports whether an API key is set
func (c *OpenAIChatClient) Configured() bool {
	return c.apiKey != ""
}

// Complete sends one non-streaming completion and returns the first choice's content
func (c *OpenAIChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.chat_completion", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		upErr := upstreamErrorFrom("LLM", err)
		span.RecordError(upErr)
		span.SetStatus(codes.Error, upErr.Message)
		return "", upErr
	}

	if len(resp.Choices) == 0 {
		upErr := &UpstreamError{Service: "LLM", Message: "response contained no completion choices"}
		span.SetStatus(codes.Error, upErr.Message)
		return "", upErr
	}

	return resp.Choices[0].Message.Content, nil
}

// OpenAISpeechClient calls an OpenAI-compatible /audio/speech endpoint
type OpenAISpeechClient struct {
	client *openai.Client
}

// NewOpenAISpeechClient creates a speech client rooted at cfg.BaseURL
func NewOpenAISpeechClient(cfg ClientConfig) *OpenAISpeechClient {
	return &OpenAISpeechClient{client: newOpenAIClient(cfg, nil)}
}

// Synthesize forwards {model, input, voice} and returns the audio body as-is
func (c *OpenAISpeechClient) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tts.create_speech", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("tts.model", req.Model),
		attribute.String("tts.voice", req.Voice),
		attribute.Int("tts.input_chars", len([]rune(req.Text))),
	)

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(req.Model),
		Input: req.Text,
		Voice: openai.SpeechVoice(req.Voice),
	})
	if err != nil {
		upErr := upstreamErrorFrom("TTS", err)
		span.RecordError(upErr)
		span.SetStatus(codes.Error, upErr.Message)
		return nil, upErr
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, &UpstreamError{Service: "TTS", Message: fmt.Sprintf("error reading audio body: %v", err)}
	}

	return &SpeechResult{
		Audio:       audio,
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}
