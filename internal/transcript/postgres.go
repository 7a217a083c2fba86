package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationLog persists transcripts to PostgreSQL for long-term history.
// The Redis store is the hot window; this is the durable archive behind it.
type ConversationLog struct {
	db *sql.DB
}

func NewConversationLog(db *sql.DB) *ConversationLog {
	if db == nil {
		return nil
	}
	return &ConversationLog{db: db}
}

// LoggedMessage is a message row as stored in PostgreSQL.
type LoggedMessage struct {
	ID        uuid.UUID
	SessionID string
	Role      string
	Content   string
	Intent    string
	Blocked   bool
	CreatedAt time.Time
}

// EnsureConversation creates or touches the conversation row for a session.
func (l *ConversationLog) EnsureConversation(ctx context.Context, sessionID string) (uuid.UUID, error) {
	if l == nil || l.db == nil {
		return uuid.Nil, nil
	}

	var id uuid.UUID
	err := l.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, session_id, started_at, last_message_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET last_message_at = NOW()
		RETURNING id`,
		uuid.New(), sessionID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("transcript: ensure conversation %s: %w", sessionID, err)
	}
	return id, nil
}

// AppendMessage writes one message row and bumps the conversation counters.
func (l *ConversationLog) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	if l == nil || l.db == nil {
		return nil
	}

	if _, err := l.EnsureConversation(ctx, sessionID); err != nil {
		return err
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, intent, blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, sessionID, msg.Role, msg.Text, msg.Intent, msg.Blocked, ts,
	)
	if err != nil {
		return fmt.Errorf("transcript: append message for %s: %w", sessionID, err)
	}

	_, err = l.db.ExecContext(ctx, `
		UPDATE conversations
		SET message_count = message_count + 1, last_message_at = $2
		WHERE session_id = $1`,
		sessionID, ts,
	)
	if err != nil {
		return fmt.Errorf("transcript: update counters for %s: %w", sessionID, err)
	}
	return nil
}

// Messages returns the stored history for a session, oldest first.
func (l *ConversationLog) Messages(ctx context.Context, sessionID string, limit int) ([]LoggedMessage, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, intent, blocked, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript: query messages for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []LoggedMessage
	for rows.Next() {
		var m LoggedMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Intent, &m.Blocked, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("transcript: scan message row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: iterate message rows: %w", err)
	}
	return out, nil
}
