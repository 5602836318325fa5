package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/models"
	"pocket-pharmacist/internal/session"
)

const maxRequestBytes = 64 * 1024

// QueryProcessor is the orchestration pipeline as the API sees it.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, req *models.QueryRequest) models.QueryResponse
}

type ChatHandler struct {
	processor QueryProcessor
	sessions  *session.Store // nil unless the shared store is enabled
	logger    logger.Logger
}

func NewChatHandler(processor QueryProcessor, sessions *session.Store, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		processor: processor,
		sessions:  sessions,
		logger: log.With(map[string]interface{}{
			"handler": "chat",
		}),
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil || len(body) == 0 {
		h.writeError(w, http.StatusBadRequest, "Missing request body", nil)
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body", nil)
		return
	}

	if details, ok := h.validate(raw); !ok {
		h.writeError(w, http.StatusBadRequest, "Invalid request", details)
		return
	}

	var msg ChatMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request", nil)
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state := models.SessionState(msg.Context)
	if len(state) == 0 && h.sessions != nil {
		stored, err := h.sessions.Load(r.Context(), sessionID)
		if err != nil {
			h.logger.Warn("session store read failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		} else {
			state = stored
		}
	}

	resp := h.processor.ProcessQuery(r.Context(), &models.QueryRequest{
		Text:         msg.Text,
		SessionID:    sessionID,
		SessionState: state,
		Language:     msg.Language,
	})

	switch v := resp.(type) {
	case models.QuerySuccess:
		h.persist(r.Context(), v.SessionID, v.SessionState)
		h.writeJSON(w, http.StatusOK, ChatMessage{
			SessionID: v.SessionID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Text:      v.Text,
			Language:  v.Language,
			Context:   json.RawMessage(v.SessionState),
		})
	case models.QueryFailure:
		h.persist(r.Context(), v.SessionID, v.SessionState)
		details := map[string]interface{}{
			"sessionId": v.SessionID,
		}
		if len(v.SessionState) > 0 {
			details["context"] = json.RawMessage(v.SessionState)
		}
		// A failure is an ordinary conversational outcome; the transport
		// succeeded, so the status code stays 200.
		h.writeJSON(w, http.StatusOK, ErrorResponse{
			Error:   v.Error,
			Details: details,
			Status:  "error",
		})
	default:
		h.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *ChatHandler) validate(raw map[string]interface{}) (map[string]interface{}, bool) {
	schemaLoader := gojsonschema.NewGoLoader(chatRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		h.logger.Error("schema validation error", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	if result.Valid() {
		return nil, true
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return map[string]interface{}{"violations": violations}, false
}

func (h *ChatHandler) persist(ctx context.Context, sessionID string, state models.SessionState) {
	if h.sessions == nil {
		return
	}
	if err := h.sessions.Save(ctx, sessionID, state); err != nil {
		h.logger.Warn("session store write failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
}

func (h *ChatHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
		Status:  "error",
	})
}
