package transcript

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, max int64) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, max)
}

func TestAppendAndList(t *testing.T) {
	store := newStore(t, 250)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", Message{Role: "user", Text: "hi, planning a trip"}))
	require.NoError(t, store.Append(ctx, "sess-1", Message{Role: "assistant", Text: "Where would you like to go?"}))

	msgs, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.NotEmpty(t, msgs[0].ID)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestListHonorsLimit(t *testing.T) {
	store := newStore(t, 250)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", Message{Role: "user", Text: fmt.Sprintf("message %d", i)}))
	}

	msgs, err := store.List(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "message 3", msgs[0].Text)
	assert.Equal(t, "message 4", msgs[1].Text)
}

func TestTranscriptIsCapped(t *testing.T) {
	store := newStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", Message{Role: "user", Text: fmt.Sprintf("message %d", i)}))
	}

	msgs, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "message 3", msgs[0].Text)
}

func TestAppendRequiresSessionID(t *testing.T) {
	store := newStore(t, 250)
	err := store.Append(context.Background(), "", Message{Role: "user", Text: "x"})
	assert.Error(t, err)
}

func TestListUnknownSessionIsEmpty(t *testing.T) {
	store := newStore(t, 250)
	msgs, err := store.List(context.Background(), "nope", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNilStoreIsNoOp(t *testing.T) {
	var store *RedisStore
	assert.NoError(t, store.Append(context.Background(), "sess-1", Message{Text: "x", Timestamp: time.Now()}))
	msgs, err := store.List(context.Background(), "sess-1", 0)
	assert.NoError(t, err)
	assert.Nil(t, msgs)
}
