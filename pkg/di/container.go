package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/artifact"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/health"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/shared/observability"
	"ai-character-chat/backend/shared/redis"
)

// Container holds all the dependencies for the application
type Container struct {
	Config           *config.Config
	Logger           *logger.Logger
	Metrics          *observability.Metrics
	Ledger           artifact.Ledger
	ArtifactStore    *artifact.Store
	LLM              ai.ChatCompleter
	TTS              ai.SpeechSynthesizer
	CharacterService *service.CharacterService
	ChatService      *service.ChatService
	SpeechService    *service.SpeechService
	Health           *health.Checker

	redisLedger *redis.RedisLedger
}

// Options overrides parts of the wiring, mainly for tests
type Options struct {
	LLM     ai.ChatCompleter
	TTS     ai.SpeechSynthesizer
	Metrics *observability.Metrics
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Options) (*Container, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	c := &Container{Config: cfg, Logger: log, Metrics: o.Metrics}

	if c.Metrics == nil {
		metrics, err := observability.NewMetrics("ai-character-chat")
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		c.Metrics = metrics
	}

	if cfg.Redis.URL != "" {
		ledger, err := redis.NewRedisLedger(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis ledger: %w", err)
		}
		c.redisLedger = ledger
		c.Ledger = ledger
		log.Info("Using Redis artifact ledger")
	} else {
		c.Ledger = artifact.NewMemoryLedger()
	}

	store, err := artifact.NewStore(artifact.Config{
		Dir:       cfg.Audio.Dir,
		URLPrefix: cfg.Server.BaseURL + "/public/audio",
		TTL:       cfg.Audio.TTL,
	}, c.Ledger, log)
	if err != nil {
		return nil, err
	}
	store.SetObserver(c.Metrics)
	c.ArtifactStore = store

	c.LLM = o.LLM
	if c.LLM == nil {
		c.LLM, err = newChatClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	c.TTS = o.TTS
	if c.TTS == nil {
		c.TTS = ai.NewOpenAISpeechClient(ai.ClientConfig{
			APIKey:  cfg.TTS.APIKey,
			BaseURL: cfg.TTS.BaseURL,
			Timeout: cfg.UpstreamTimeout,
		})
	}

	c.CharacterService = service.NewCharacterService()
	c.ChatService = service.NewChatService(c.CharacterService, c.LLM, service.ChatConfig{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, c.Metrics, log)
	c.SpeechService = service.NewSpeechService(c.TTS, store, service.SpeechConfig{
		DefaultVoice: cfg.TTS.DefaultVoice,
		DefaultModel: cfg.TTS.DefaultModel,
		FallbackHint: cfg.TTS.FallbackHint,
	}, c.Metrics, log)

	c.Health = c.newHealthChecker()

	return c, nil
}

func newChatClient(ctx context.Context, cfg *config.Config) (ai.ChatCompleter, error) {
	clientConfig := ai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.UpstreamTimeout,
	}

	switch cfg.LLM.Provider {
	case "openai", "zhipu", "":
		return ai.NewOpenAIChatClient(clientConfig), nil
	case "gemini":
		return ai.NewGeminiChatClient(ctx, clientConfig)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLM.Provider)
	}
}

func (c *Container) newHealthChecker() *health.Checker {
	checker := health.NewChecker(c.Logger, 2*time.Second)

	checker.RegisterCredentialCheck("llm", c.LLM.Configured)
	checker.RegisterCheck("tts", false, func(context.Context) (health.Status, string, error) {
		if c.Config.TTS.BaseURL == "" {
			return health.StatusDegraded, "TTS endpoint is not configured", nil
		}
		return health.StatusUp, "TTS endpoint " + c.Config.TTS.BaseURL, nil
	})
	checker.RegisterPingCheck("audio_storage", true, func(context.Context) error {
		info, err := os.Stat(c.ArtifactStore.Dir())
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", c.ArtifactStore.Dir())
		}
		return nil
	})
	if c.redisLedger != nil {
		checker.RegisterPingCheck("redis", false, c.redisLedger.Ping)
	}

	return checker
}

// Close stops artifact timers, optionally purging pending files, and
// releases upstream resources.
func (c *Container) Close(ctx context.Context) error {
	c.ArtifactStore.Close(c.Config.Audio.PurgeOnShutdown)

	if c.redisLedger != nil {
		if err := c.redisLedger.Close(); err != nil {
			c.Logger.LogError(err, "Failed to close redis ledger")
		}
	}
	return c.Metrics.Shutdown(ctx)
}
