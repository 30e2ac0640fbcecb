package api

import (
	"net/http"

	"ai-character-chat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type CharacterHandler struct {
	service *service.CharacterService
}

func NewCharacterHandler(service *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// ListCharacters returns every character in registry order
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List())
}

// GetCharacter returns one character. An unknown id is a plain-text 404.
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	character, err := h.service.Get(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "Character not found")
		return
	}
	c.JSON(http.StatusOK, character)
}
