package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voyago/travel-concierge/internal/requirements"
)

var (
	// ErrNotFound indicates the requested session ID does not exist.
	ErrNotFound = errors.New("session: not found")
	// ErrVersionConflict indicates the record changed between read and write.
	ErrVersionConflict = errors.New("session: version conflict")
)

// Session is one conversation's state. Version increments on every
// successful write and guards against concurrent turns on the same session.
type Session struct {
	ID           string                          `dynamodbav:"sessionId" json:"session_id"`
	Requirements requirements.TravelRequirements `dynamodbav:"requirements" json:"requirements"`
	TurnCount    int                             `dynamodbav:"turnCount" json:"turn_count"`
	LastIntent   string                          `dynamodbav:"lastIntent,omitempty" json:"last_intent,omitempty"`
	TrustScore   float64                         `dynamodbav:"trustScore" json:"trust_score"`
	ErrorCount   int                             `dynamodbav:"errorCount" json:"error_count"`
	CreatedAt    string                          `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt    string                          `dynamodbav:"updatedAt" json:"updated_at"`
	Version      int64                           `dynamodbav:"version" json:"version"`
	ExpiresAt    int64                           `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// NewSession creates a fresh session at version 0; the first successful Put
// moves it to 1.
func NewSession() *Session {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return &Session{
		ID:           uuid.NewString(),
		Requirements: requirements.New(),
		TrustScore:   1.0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PenalizeTrust lowers the trust score by amount, bounded at zero.
func (s *Session) PenalizeTrust(amount float64) {
	s.TrustScore -= amount
	if s.TrustScore < 0 {
		s.TrustScore = 0
	}
}

// Clone returns a deep copy safe to mutate independently.
func (s *Session) Clone() *Session {
	out := *s
	out.Requirements = s.Requirements.Clone()
	return &out
}

// Store persists sessions with optimistic concurrency. Put succeeds only when
// the stored version still equals expectedVersion (0 means the record must not
// exist yet); on success the session's Version becomes expectedVersion+1.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
