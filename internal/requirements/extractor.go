package requirements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voyago/travel-concierge/internal/llm"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// ErrExtraction marks any failure to obtain a usable extraction for a turn:
// provider errors, timeouts, and malformed or schema-invalid payloads all wrap
// it so callers can treat them uniformly.
var ErrExtraction = errors.New("requirements: extraction failed")

// Extractor pulls structured travel fields out of one user message.
type Extractor interface {
	Extract(ctx context.Context, userText string, current *TravelRequirements) (*ExtractionResult, error)
}

const extractionSystemPrompt = `You extract travel-planning details from a single user message.

Return ONLY a JSON object. Include a key only when the message actually carries that detail:
- "destination": {"value": "<place>", "confidence": "tentative"|"confirmed", "span": "<quoted words>", "affirmed": bool, "correction": bool}
- "date_range": {"value": {"start": "<date>", "end": "<date>"}, ...same meta}
- "traveler_count": {"value": <integer>, ...same meta}
- "budget": {"value": {"amount": <number>, "currency": "<code or symbol>"}, ...same meta}
- "preferences": {"value": ["<preference>", ...], ...same meta}

Rules:
- "confidence" is "confirmed" only when the user states the value plainly and without hedging ("we're going to Lisbon"). Hedged or implied values ("maybe Lisbon", "somewhere warm like Lisbon?") are "tentative".
- "affirmed" is true when the message repeats or agrees with a value the assistant already knows (shown below).
- "correction" is true when the message explicitly replaces a previously stated value.
- Dates may be partial ("April 2026"). Use the user's own precision, as "YYYY-MM-DD", "Month D, YYYY", "YYYY-MM", "Month YYYY", or "YYYY".
- Never invent values. An empty object {} is the correct answer for a message with no travel details.`

// LLMExtractor implements Extractor on top of the configured llm.Client with a
// bounded per-call timeout.
type LLMExtractor struct {
	client  llm.Client
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

func NewLLMExtractor(client llm.Client, model string, timeout time.Duration, logger *logging.Logger) *LLMExtractor {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMExtractor{client: client, model: model, timeout: timeout, logger: logger}
}

func (e *LLMExtractor) Extract(ctx context.Context, userText string, current *TravelRequirements) (*ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Complete(ctx, llm.Request{
		Model:  e.model,
		System: []string{extractionSystemPrompt},
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: e.buildPrompt(userText, current)},
		},
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		e.logger.Warn("extraction call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	raw := stripCodeFences(resp.Text)
	result, err := ParseExtraction([]byte(raw))
	if err != nil {
		e.logger.Warn("extraction payload rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return result, nil
}

// buildPrompt shows the model what is already known so it can flag
// affirmations and corrections instead of re-extracting blindly.
func (e *LLMExtractor) buildPrompt(userText string, current *TravelRequirements) string {
	var b strings.Builder
	b.WriteString("Known so far:\n")
	b.WriteString(knownFieldsJSON(current))
	b.WriteString("\n\nUser message:\n")
	b.WriteString(userText)
	return b.String()
}

func knownFieldsJSON(r *TravelRequirements) string {
	known := map[string]any{}
	if r != nil {
		if r.Destination != "" {
			known["destination"] = r.Destination
		}
		if r.Dates != nil {
			known["date_range"] = r.Dates
		}
		if r.TravelerCount > 0 {
			known["traveler_count"] = r.TravelerCount
		}
		if r.Budget != nil {
			known["budget"] = r.Budget
		}
		if len(r.Preferences) > 0 {
			known["preferences"] = r.Preferences
		}
	}
	out, err := json.Marshal(known)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// stripCodeFences unwraps a fenced block some providers insist on emitting.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
