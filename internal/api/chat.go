package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
	apperrors "ai-character-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service *service.ChatService
}

func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat relays the transcript for one character and returns the reply text
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	text, err := h.service.Chat(upstreamContext(c), req.CharacterID, req.History)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{Text: text})
}

// upstreamContext keeps the request's values (request ID, trace span) but not
// its cancellation: a client disconnect must not abort an issued upstream call.
func upstreamContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// bindJSON decodes the request body into obj. An empty body leaves obj at
// its zero value so the service reports the missing fields.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.NewError(http.StatusRequestEntityTooLarge, apperrors.CodeBadRequest, "Request body too large")
	}
	return apperrors.NewBadRequestError("Invalid JSON body").WithDetails(err.Error())
}
