package ai

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiChatClient sends the adapted message sequence to the Gemini API.
// The system entry becomes the system instruction and assistant turns are
// sent with the "model" role.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

// NewGeminiChatClient creates a Gemini client. An empty key yields an
// unconfigured client rather than an error.
func NewGeminiChatClient(ctx context.Context, cfg ClientConfig) (*GeminiChatClient, error) {
	c := &GeminiChatClient{model: cfg.Model}
	if cfg.APIKey == "" {
		return c, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: NewHTTPClient(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// Configured reports whether the client was built with a key
func (c *GeminiChatClient) Configured() bool {
	return c.client != nil
}

// Complete issues one GenerateContent call and returns the first text part
func (c *GeminiChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.generate_content", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	system, contents := toGeminiContents(req.Messages)

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		upErr := &UpstreamError{Service: "LLM", Message: err.Error()}
		span.RecordError(upErr)
		span.SetStatus(codes.Error, upErr.Message)
		return "", upErr
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}

	span.SetStatus(codes.Error, "no candidates")
	return "", &UpstreamError{Service: "LLM", Message: "response contained no completion candidates"}
}

func toGeminiContents(messages []ChatMessage) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return strings.Join(system, "\n\n"), contents
}
