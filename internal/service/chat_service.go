package service

import (
	"context"
	"errors"
	"time"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/models"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
)

// Recorder receives relay outcomes; *observability.Metrics satisfies it
type Recorder interface {
	RecordChat(ctx context.Context, outcome string)
	RecordSpeech(ctx context.Context, outcome string)
	ObserveUpstream(ctx context.Context, service string, elapsed time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordChat(context.Context, string) {}
func (noopRecorder) RecordSpeech(context.Context, string) {}
func (noopRecorder) ObserveUpstream(context.Context, string, time.Duration, error) {}

// Outcome labels passed to Recorder
const (
	OutcomeOK            = "ok"
	OutcomeBadRequest    = "bad_request"
	OutcomeNotFound      = "not_found"
	OutcomeNotConfigured = "not_configured"
	OutcomeUpstreamError = "upstream_error"
)

// ChatConfig holds the sampling parameters sent with every completion
type ChatConfig struct {
	Temperature float32
	MaxTokens   int
}

// ChatService relays a character conversation to the LLM
type ChatService struct {
	characters *CharacterService
	llm        ai.ChatCompleter
	config     ChatConfig
	recorder   Recorder
	log        *logger.Logger
}

// NewChatService wires the relay. A nil recorder disables metrics.
func NewChatService(characters *CharacterService, llm ai.ChatCompleter, config ChatConfig, recorder Recorder, log *logger.Logger) *ChatService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ChatService{
		characters: characters,
		llm:        llm,
		config:     config,
		recorder:   recorder,
		log:        log.WithComponent("chat_service"),
	}
}

// Chat sends the character's system prompt plus the full transcript upstream
// and returns the generated reply. history must be non-nil; an empty slice is
// a valid transcript.
func (s *ChatService) Chat(ctx context.Context, characterID string, history []models.Message) (string, error) {
	if characterID == "" || history == nil {
		s.recorder.RecordChat(ctx, OutcomeBadRequest)
		return "", apperrors.NewBadRequestError("characterId and history are required")
	}

	character, err := s.characters.Get(characterID)
	if err != nil {
		s.recorder.RecordChat(ctx, OutcomeNotFound)
		return "", apperrors.NewNotFoundError("Character not found")
	}

	if !s.llm.Configured() {
		s.recorder.RecordChat(ctx, OutcomeNotConfigured)
		return "", apperrors.NewConfigurationError("LLM_API_KEY is not configured")
	}

	start := time.Now()
	text, err := s.llm.Complete(ctx, ai.ChatRequest{
		Messages:    BuildMessages(character.SystemPrompt, history),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	s.recorder.ObserveUpstream(ctx, "llm", time.Since(start), err)

	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			s.recorder.RecordChat(ctx, OutcomeNotConfigured)
			return "", apperrors.NewConfigurationError("LLM_API_KEY is not configured")
		}
		s.log.LogError(err, "Error with LLM API", "character", characterID, "turns", len(history))
		s.recorder.RecordChat(ctx, OutcomeUpstreamError)
		return "", apperrors.NewUpstreamError("Failed to get response from AI", err)
	}

	s.recorder.RecordChat(ctx, OutcomeOK)
	return text, nil
}

// BuildMessages adapts a transcript to the chat-completion shape: the system
// prompt first, then user turns as "user" and model turns as "assistant".
// Entries with any other role are dropped.
func BuildMessages(systemPrompt string, history []models.Message) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: systemPrompt})

	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: m.Text()})
		case models.RoleModel:
			messages = append(messages, ai.ChatMessage{Role: ai.RoleAssistant, Content: m.Text()})
		}
	}
	return messages
}
