package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voyago/travel-concierge/internal/requirements"
	"github.com/voyago/travel-concierge/internal/session"
	"github.com/voyago/travel-concierge/internal/transcript"
	"github.com/voyago/travel-concierge/internal/turn"
	"github.com/voyago/travel-concierge/pkg/logging"
)

const maxTurnTextLen = 4000

// TranscriptLister reads back a session's recent transcript.
type TranscriptLister interface {
	List(ctx context.Context, sessionID string, limit int64) ([]transcript.Message, error)
}

// TravelHandler wires HTTP requests to the turn pipeline.
type TravelHandler struct {
	processor   *turn.Processor
	store       session.Store
	transcripts TranscriptLister
	logger      *logging.Logger
}

func NewTravelHandler(processor *turn.Processor, store session.Store, transcripts TranscriptLister, logger *logging.Logger) *TravelHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TravelHandler{
		processor:   processor,
		store:       store,
		transcripts: transcripts,
		logger:      logger,
	}
}

// TurnRequest is the POST /travel/turn body.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// TurnResponse is the POST /travel/turn body on success.
type TurnResponse struct {
	SessionID       string                          `json:"session_id"`
	ReplyText       string                          `json:"reply_text"`
	Status          requirements.Status             `json:"status"`
	ReadyForHandoff bool                            `json:"ready_for_handoff"`
	Requirements    requirements.TravelRequirements `json:"requirements_snapshot"`
	Intent          string                          `json:"intent,omitempty"`
	Blocked         bool                            `json:"blocked,omitempty"`
	TrustScore      float64                         `json:"trust_score"`
}

// Turn handles POST /travel/turn.
func (h *TravelHandler) Turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Blank text is a valid no-op turn; the pipeline repeats the pending
	// question. Only oversize input is rejected here.
	if len(req.Text) > maxTurnTextLen {
		http.Error(w, "text too long", http.StatusRequestEntityTooLarge)
		return
	}

	resp, err := h.processor.Process(r.Context(), turn.Request{
		SessionID: strings.TrimSpace(req.SessionID),
		Text:      req.Text,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, turn.ErrSessionBusy):
			http.Error(w, "session busy, please retry", http.StatusConflict)
		default:
			h.logger.Error("failed to process turn", "error", err)
			http.Error(w, "Failed to process turn", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, TurnResponse{
		SessionID:       resp.SessionID,
		ReplyText:       resp.Reply,
		Status:          resp.Status,
		ReadyForHandoff: resp.ReadyForHandoff,
		Requirements:    resp.Requirements,
		Intent:          string(resp.Intent),
		Blocked:         resp.Blocked,
		TrustScore:      resp.TrustScore,
	})
}

// GetSession handles GET /travel/session/{sessionID}.
func (h *TravelHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load session", "session_id", id, "error", err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /admin/sessions/{sessionID}.
func (h *TravelHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete session", "session_id", id, "error", err)
		http.Error(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTranscript handles GET /admin/sessions/{sessionID}/transcript.
func (h *TravelHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		http.Error(w, "transcripts not configured", http.StatusNotFound)
		return
	}

	id := chi.URLParam(r, "sessionID")
	limit := int64(0)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	msgs, err := h.transcripts.List(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list transcript", "session_id", id, "error", err)
		http.Error(w, "Failed to list transcript", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []transcript.Message{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   msgs,
	})
}

// Health handles GET /health.
func (h *TravelHandler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TravelHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
