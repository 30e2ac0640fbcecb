package service

import (
	"context"
	"strings"
	"time"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/artifact"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
)

// ArtifactSaver persists synthesized audio; *artifact.Store satisfies it
type ArtifactSaver interface {
	Save(ctx context.Context, data []byte, contentType string) (*artifact.Artifact, error)
}

// SpeechConfig holds request defaults and the hint attached to failures
type SpeechConfig struct {
	DefaultVoice string
	DefaultModel string
	FallbackHint string
}

// SpeechService relays text to the TTS upstream and stores the result as a
// short-lived audio artifact.
type SpeechService struct {
	tts      ai.SpeechSynthesizer
	store    ArtifactSaver
	config   SpeechConfig
	recorder Recorder
	log      *logger.Logger
}

func NewSpeechService(tts ai.SpeechSynthesizer, store ArtifactSaver, config SpeechConfig, recorder Recorder, log *logger.Logger) *SpeechService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &SpeechService{
		tts:      tts,
		store:    store,
		config:   config,
		recorder: recorder,
		log:      log.WithComponent("speech_service"),
	}
}

// Synthesize converts text to audio and returns the artifact's public URL.
// Empty voice or model fall back to the configured defaults.
func (s *SpeechService) Synthesize(ctx context.Context, text, voice, model string) (string, error) {
	if text == "" {
		s.recorder.RecordSpeech(ctx, OutcomeBadRequest)
		return "", apperrors.NewBadRequestError("Text is required")
	}
	if voice == "" {
		voice = s.config.DefaultVoice
	}
	if model == "" {
		model = s.config.DefaultModel
	}

	s.log.Info("Calling TTS API", "text", preview(text, 50), "voice", voice, "model", model)

	start := time.Now()
	result, err := s.tts.Synthesize(ctx, ai.SpeechRequest{Text: text, Voice: voice, Model: model})
	s.recorder.ObserveUpstream(ctx, "tts", time.Since(start), err)
	if err != nil {
		return "", s.fail(ctx, err)
	}

	if !strings.Contains(result.ContentType, "audio/") {
		s.log.Warn("Unexpected content type from TTS API", "content_type", result.ContentType)
	}

	if len(result.Audio) == 0 {
		return "", s.fail(ctx, &ai.UpstreamError{Service: "TTS", Message: "TTS API returned empty audio data"})
	}

	art, err := s.store.Save(ctx, result.Audio, result.ContentType)
	if err != nil {
		return "", s.fail(ctx, err)
	}

	s.log.Info("TTS successful", "artifact", art.Name, "bytes", art.Size)
	s.recorder.RecordSpeech(ctx, OutcomeOK)
	return art.URL, nil
}

func (s *SpeechService) fail(ctx context.Context, err error) error {
	s.log.LogError(err, "Error with TTS API")
	s.recorder.RecordSpeech(ctx, OutcomeUpstreamError)

	appErr := apperrors.NewUpstreamError("Failed to synthesize speech", err)
	if s.config.FallbackHint != "" {
		appErr.WithSuggestion(s.config.FallbackHint)
	}
	return appErr
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
