package models

// Character is a roleplay persona. Records are immutable and keyed by ID.
type Character struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	SystemPrompt string `json:"systemPrompt"`
}
