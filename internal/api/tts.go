package api

import (
	"net/http"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type TTSHandler struct {
	service *service.SpeechService
}

func NewTTSHandler(service *service.SpeechService) *TTSHandler {
	return &TTSHandler{service: service}
}

// Synthesize converts text to speech and returns the temporary audio URL
func (h *TTSHandler) Synthesize(c *gin.Context) {
	var req models.TTSRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	url, err := h.service.Synthesize(upstreamContext(c), req.Text, req.Voice, req.Model)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.TTSResponse{AudioURL: url})
}
