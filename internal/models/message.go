package models

// Transcript roles sent by the client
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is a fragment of a message's content
type Part struct {
	Text string `json:"text"`
}

// Message is one turn of the transcript the client resends on every call
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text returns the first part's text, or "" when the message has no parts
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[0].Text
}

// ChatRequest is the body of POST /api/chat. A missing or null history
// decodes to nil and is rejected; an empty array is accepted.
type ChatRequest struct {
	CharacterID string    `json:"characterId"`
	History     []Message `json:"history"`
}

// ChatResponse is the body returned by POST /api/chat
type ChatResponse struct {
	Text string `json:"text"`
}
