package api

import "encoding/json"

// ChatMessage is the wire shape shared by requests and successful
// responses on POST /api/chat.
type ChatMessage struct {
	SessionID string          `json:"sessionId"`
	Timestamp string          `json:"timestamp"`
	Text      string          `json:"text"`
	Language  string          `json:"language,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
}

// ErrorResponse is the wire shape for failures, conversational or not.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
	Status  string                 `json:"status"`
}

// chatRequestSchema validates inbound chat requests before they reach the
// pipeline.
var chatRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"sessionId": map[string]interface{}{"type": "string"},
		"timestamp": map[string]interface{}{"type": "string"},
		"text":      map[string]interface{}{"type": "string", "minLength": 1},
		"language":  map[string]interface{}{"type": "string", "maxLength": 5},
		"context":   map[string]interface{}{},
	},
	"required": []string{"text"},
}
