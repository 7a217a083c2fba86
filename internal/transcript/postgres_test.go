package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureConversationUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(sqlmock.AnyArg(), "sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	log := NewConversationLog(db)
	got, err := log.EnsureConversation(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageWritesRowAndCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(sqlmock.AnyArg(), "sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), "sess-1", "user", "maybe Lisbon", "planning", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE conversations").
		WithArgs("sess-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := NewConversationLog(db)
	err = log.AppendMessage(context.Background(), "sess-1", Message{
		Role:   "user",
		Text:   "maybe Lisbon",
		Intent: "planning",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessagesScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "role", "content", "intent", "blocked", "created_at"}).
		AddRow(uuid.New().String(), "sess-1", "user", "hello", "greeting", false, now).
		AddRow(uuid.New().String(), "sess-1", "assistant", "Hello! Where would you like to go?", "", false, now)
	mock.ExpectQuery("SELECT id, session_id, role, content, intent, blocked, created_at").
		WithArgs("sess-1", 200).
		WillReturnRows(rows)

	log := NewConversationLog(db)
	msgs, err := log.Messages(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "Hello! Where would you like to go?", msgs[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilConversationLogIsNoOp(t *testing.T) {
	var log *ConversationLog
	_, err := log.EnsureConversation(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.NoError(t, log.AppendMessage(context.Background(), "sess-1", Message{Text: "x"}))
}
