package handoff

import (
	"context"
	"time"

	"github.com/voyago/travel-concierge/internal/requirements"
)

// Snapshot is what downstream planning systems receive when a conversation
// finishes collecting requirements.
type Snapshot struct {
	SessionID    string                          `json:"session_id"`
	Requirements requirements.TravelRequirements `json:"requirements"`
	TurnCount    int                             `json:"turn_count"`
	CompletedAt  time.Time                       `json:"completed_at"`
}

// Publisher delivers a completed snapshot to whatever sits behind the front
// door. Publishing happens once, on the turn a session becomes complete.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}
