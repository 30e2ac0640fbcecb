package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		BaseURL string
	}

	// LLM upstream configuration
	LLM struct {
		Provider    string
		APIKey      string
		BaseURL     string
		Model       string
		Temperature float32
		MaxTokens   int
	}

	// TTS upstream configuration
	TTS struct {
		BaseURL      string
		APIKey       string
		DefaultVoice string
		DefaultModel string
		FallbackHint string
	}

	// Upstream timeout applied to both relays; zero means no timeout
	UpstreamTimeout time.Duration

	// Audio artifact configuration
	Audio struct {
		Dir             string
		TTL             time.Duration
		SweepOnStart    bool
		PurgeOnShutdown bool
	}

	// Redis configuration for the artifact ledger
	Redis struct {
		URL string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Observability configuration
	Observability struct {
		TraceStdout bool
	}

	// OpenAPI contract used for request validation
	OpenAPISchemaPath string
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the current environment without touching the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "3001")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.BaseURL = strings.TrimRight(getEnvString("PUBLIC_BASE_URL", "http://localhost:"+cfg.Server.Port), "/")

	// LLM config
	cfg.LLM.Provider = strings.ToLower(getEnvString("LLM_PROVIDER", "openai"))
	cfg.LLM.APIKey = getEnvString("LLM_API_KEY", os.Getenv("ZHIPU_API_KEY"))
	cfg.LLM.BaseURL = getEnvString("LLM_BASE_URL", defaultLLMBaseURL(cfg.LLM.Provider))
	cfg.LLM.Model = getEnvString("LLM_MODEL", defaultLLMModel(cfg.LLM.Provider))
	cfg.LLM.Temperature = getEnvFloat32("LLM_TEMPERATURE", 0.7)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 1024)

	// TTS config
	// TTS_API_URL may name the full endpoint; the speech client appends /audio/speech itself
	cfg.TTS.BaseURL = strings.TrimSuffix(
		strings.TrimRight(getEnvString("TTS_API_URL", "http://localhost:5050/v1"), "/"), "/audio/speech")
	cfg.TTS.APIKey = getEnvString("TTS_API_KEY", "")
	cfg.TTS.DefaultVoice = getEnvString("TTS_DEFAULT_VOICE", "zh-CN-YunxiNeural")
	cfg.TTS.DefaultModel = getEnvString("TTS_DEFAULT_MODEL", "tts-1")
	cfg.TTS.FallbackHint = getEnvString("TTS_FALLBACK_HINT",
		fmt.Sprintf("Check if your TTS service is running at %s", cfg.TTS.BaseURL))

	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 0)

	// Audio config
	cfg.Audio.Dir = getEnvString("AUDIO_DIR", "public/audio")
	cfg.Audio.TTL = getEnvDuration("AUDIO_TTL", 5*time.Minute)
	cfg.Audio.SweepOnStart = getEnvBool("AUDIO_SWEEP_ON_START", true)
	cfg.Audio.PurgeOnShutdown = getEnvBool("AUDIO_PURGE_ON_SHUTDOWN", false)

	cfg.Redis.URL = getEnvString("REDIS_URL", "")

	// Security config
	cfg.Security.RateLimit = getEnvFloat64("RATE_LIMIT", 5)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Observability.TraceStdout = getEnvBool("OTEL_TRACE_STDOUT", false)

	cfg.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	return cfg
}

func defaultLLMBaseURL(provider string) string {
	if provider == "gemini" {
		return ""
	}
	return "https://open.bigmodel.cn/api/paas/v4"
}

func defaultLLMModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.5-flash"
	}
	return "glm-4-flash"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvFloat64(key, float64(defaultValue)))
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
