package router

import (
	"os"

	"ai-character-chat/backend/internal/api"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	handler := api.NewHealthHandler(r.Container.Health, os.Getenv("APP_VERSION"))

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", handler.Health)
	r.Engine.GET("/api/health", handler.Health)
}
