package router

import (
	"net/http"
	"strings"
	"time"

	"ai-character-chat/backend/internal/api"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/di"
	"ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Config      *config.Config
	RateLimiter *middleware.RateLimiter
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Request ID first so the logger and upstream calls share it
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(bodyLimit(cfg.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		RateLimiter: middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
			Limit: rate.Limit(cfg.Security.RateLimit),
			Burst: cfg.Security.RateLimitBurst,
		}),
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	if r.Config.OpenAPISchemaPath != "" {
		r.AddOpenAPIValidation(r.Config.OpenAPISchemaPath)
	}

	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)
	chatHandler := api.NewChatHandler(r.Container.ChatService)
	ttsHandler := api.NewTTSHandler(r.Container.SpeechService)

	apiGroup := r.Engine.Group("/api")
	{
		apiGroup.GET("/characters", characterHandler.ListCharacters)
		apiGroup.GET("/characters/:id", characterHandler.GetCharacter)

		// Upstream relays are rate limited per client
		relays := apiGroup.Group("", r.RateLimiter.Middleware())
		relays.POST("/chat", chatHandler.Chat)
		relays.POST("/tts", ttsHandler.Synthesize)
	}

	r.setupHealthRoutes()

	r.Engine.Static("/public/audio", r.Container.ArtifactStore.Dir())
	r.Engine.GET("/metrics", gin.WrapH(r.Container.Metrics.Handler()))

	r.Engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Error(errors.NewNotFoundError("Not found"))
			return
		}
		c.String(http.StatusNotFound, "Not Found")
	})
}

// Stop releases background resources owned by the router
func (r *Router) Stop() {
	r.RateLimiter.Stop()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

// bodyLimit caps request bodies; decoding past the limit fails with 413
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
