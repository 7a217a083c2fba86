package handlers

import (
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/voyago/travel-concierge/internal/turn"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// WebchatHandler serves the live chat surface over a WebSocket. Each socket
// carries one session; turns go through the same pipeline as the REST API.
type WebchatHandler struct {
	processor   *turn.Processor
	transcripts TranscriptLister
	logger      *logging.Logger
}

func NewWebchatHandler(processor *turn.Processor, transcripts TranscriptLister, logger *logging.Logger) *WebchatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebchatHandler{processor: processor, transcripts: transcripts, logger: logger}
}

// WebchatInbound is what the widget sends.
type WebchatInbound struct {
	Type      string `json:"type"` // "message", "history", "ping"
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
}

// WebchatOutbound is what the server sends to the widget.
type WebchatOutbound struct {
	Type            string           `json:"type"` // "message", "session", "history", "pong", "error"
	Text            string           `json:"text,omitempty"`
	Role            string           `json:"role,omitempty"`
	SessionID       string           `json:"session_id,omitempty"`
	Status          string           `json:"status,omitempty"`
	ReadyForHandoff bool             `json:"ready_for_handoff,omitempty"`
	Timestamp       string           `json:"timestamp,omitempty"`
	Messages        []WebchatHistory `json:"messages,omitempty"`
}

// WebchatHistory is a simplified transcript entry for history responses.
type WebchatHistory struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// HandleWebSocket upgrades to WebSocket and relays turns.
func (h *WebchatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *WebchatHandler) serveWS(conn *websocket.Conn, r *http.Request) {
	defer conn.Close()

	sessionID := r.URL.Query().Get("session")
	if sessionID != "" {
		_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "session", SessionID: sessionID})
	}

	for {
		var in WebchatInbound
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			return
		}

		switch in.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "pong"})

		case "history":
			h.sendHistory(conn, r, firstNonEmpty(in.SessionID, sessionID))

		case "message":
			// Blank text rides through as a no-op turn; the pipeline
			// repeats its pending question.
			resp, err := h.processor.Process(r.Context(), turn.Request{
				SessionID: firstNonEmpty(in.SessionID, sessionID),
				Text:      in.Text,
			})
			if err != nil {
				h.logger.Warn("webchat turn failed", "session_id", sessionID, "error", err)
				_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "error", Text: "could not process message, please retry"})
				continue
			}
			// The session binds to the socket on first turn.
			if sessionID == "" {
				sessionID = resp.SessionID
				_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "session", SessionID: sessionID})
			}
			_ = websocket.JSON.Send(conn, WebchatOutbound{
				Type:            "message",
				Role:            "assistant",
				Text:            resp.Reply,
				SessionID:       resp.SessionID,
				Status:          string(resp.Status),
				ReadyForHandoff: resp.ReadyForHandoff,
				Timestamp:       time.Now().UTC().Format(time.RFC3339),
			})

		default:
			_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "error", Text: "unknown message type"})
		}
	}
}

func (h *WebchatHandler) sendHistory(conn *websocket.Conn, r *http.Request, sessionID string) {
	if h.transcripts == nil || sessionID == "" {
		_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "history", Messages: []WebchatHistory{}})
		return
	}
	msgs, err := h.transcripts.List(r.Context(), sessionID, 50)
	if err != nil {
		h.logger.Warn("webchat history lookup failed", "session_id", sessionID, "error", err)
		_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "error", Text: "could not load history"})
		return
	}
	out := make([]WebchatHistory, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, WebchatHistory{
			Role:      m.Role,
			Text:      m.Text,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	_ = websocket.JSON.Send(conn, WebchatOutbound{Type: "history", SessionID: sessionID, Messages: out})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
