package ai

import "context"

// Chat roles understood by the upstream chat-completion APIs
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the upstream message sequence
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest holds the generation parameters for a single completion
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// ChatCompleter issues a single non-streaming chat completion upstream
type ChatCompleter interface {
	// Configured reports whether the upstream credential is present
	Configured() bool
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// SpeechRequest is the payload forwarded to the speech-synthesis endpoint
type SpeechRequest struct {
	Text  string
	Voice string
	Model string
}

// SpeechResult carries the raw audio returned upstream
type SpeechResult struct {
	Audio       []byte
	ContentType string
}

// SpeechSynthesizer turns text into audio bytes
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}
