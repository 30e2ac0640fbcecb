package api

import (
	"net/http"
	"time"

	"ai-character-chat/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports component health
type HealthHandler struct {
	checker *health.Checker
	version string
}

func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                       `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Version    string                       `json:"version,omitempty"`
	Components map[string]*health.Component `json:"components"`
}

// Health runs every check and answers 503 when a critical component is down
func (h *HealthHandler) Health(c *gin.Context) {
	h.checker.RunChecks(c.Request.Context())

	response := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Version:    h.version,
		Components: h.checker.GetStatus(),
	}

	code := http.StatusOK
	if !h.checker.IsSystemHealthy() {
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}
