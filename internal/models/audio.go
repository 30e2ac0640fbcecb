package models

// TTSRequest is the body of POST /api/tts
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Model string `json:"model,omitempty"`
}

// TTSResponse is the body returned by POST /api/tts
type TTSResponse struct {
	AudioURL string `json:"audioUrl"`
}
