package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/di"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/router"
	"ai-character-chat/backend/pkg/secrets"
	"ai-character-chat/backend/shared/observability"
)

func main() {
	// Loads .env if present
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	ctx := context.Background()

	if err := secrets.Init(log, secrets.ConfigFromEnv()); err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	cfg.LLM.APIKey = secrets.GetSecretWithDefault(ctx, secrets.KeyLLMAPIKey, cfg.LLM.APIKey)
	cfg.TTS.APIKey = secrets.GetSecretWithDefault(ctx, secrets.KeyTTSAPIKey, cfg.TTS.APIKey)

	if cfg.LLM.APIKey == "" {
		log.Warn("LLM API key is not configured; chat requests will fail until it is set")
	}

	shutdownTracing, err := observability.SetupTracing("ai-character-chat", cfg.Observability.TraceStdout)
	if err != nil {
		log.LogError(err, "Failed to initialize tracing")
		os.Exit(1)
	}

	container, err := di.New(ctx, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	if cfg.Audio.SweepOnStart {
		if _, _, err := container.ArtifactStore.Sweep(ctx); err != nil {
			log.LogError(err, "Artifact sweep failed")
		}
	}

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("AIChat backend listening", "port", cfg.Server.Port, "audio_dir", cfg.Audio.Dir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	r.Stop()

	if err := container.Close(shutdownCtx); err != nil {
		log.LogError(err, "Failed to release resources")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush traces")
	}

	log.Info("Server exited gracefully")
}
