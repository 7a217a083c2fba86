package session

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo emulates just enough conditional-write behavior for the store.
type fakeDynamo struct {
	items    map[string]map[string]types.AttributeValue
	putInput *dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["sessionId"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInput = in
	id := in.Item["sessionId"].(*types.AttributeValueMemberS).Value
	existing, exists := f.items[id]

	switch {
	case in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(sessionId)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	case in.ConditionExpression != nil:
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		current := existing["version"].(*types.AttributeValueMemberN).Value
		if expected != current {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	id := in.Key["sessionId"].(*types.AttributeValueMemberS).Value
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour, nil)
	ctx := context.Background()

	sess := NewSession()
	sess.Requirements.Destination = "Kyoto"
	require.NoError(t, store.Put(ctx, sess, 0))
	assert.Equal(t, int64(1), sess.Version)
	assert.Positive(t, sess.ExpiresAt)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kyoto", got.Requirements.Destination)
	assert.Equal(t, int64(1), got.Version)
}

func TestDynamoStoreGetMissing(t *testing.T) {
	store := NewDynamoStore(newFakeDynamo(), "sessions", time.Hour, nil)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStoreCreateConflict(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour, nil)
	ctx := context.Background()

	sess := NewSession()
	require.NoError(t, store.Put(ctx, sess, 0))

	dup := NewSession()
	dup.ID = sess.ID
	err := store.Put(ctx, dup, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestDynamoStoreStaleWriteConflict(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour, nil)
	ctx := context.Background()

	sess := NewSession()
	require.NoError(t, store.Put(ctx, sess, 0))

	stale := sess.Clone()
	require.NoError(t, store.Put(ctx, sess, 1))

	err := store.Put(ctx, stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(1), stale.Version, "failed write must not advance the version")
}

func TestDynamoStoreConditionExpressions(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour, nil)
	ctx := context.Background()

	sess := NewSession()
	require.NoError(t, store.Put(ctx, sess, 0))
	require.NotNil(t, fake.putInput.ConditionExpression)
	assert.Equal(t, "attribute_not_exists(sessionId)", *fake.putInput.ConditionExpression)

	require.NoError(t, store.Put(ctx, sess, 1))
	require.NotNil(t, fake.putInput.ConditionExpression)
	assert.Equal(t, "version = :expected", *fake.putInput.ConditionExpression)
}

func TestDynamoStoreDelete(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour, nil)
	ctx := context.Background()

	sess := NewSession()
	require.NoError(t, store.Put(ctx, sess, 0))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionSurvivesAttributeValueRoundTrip(t *testing.T) {
	sess := NewSession()
	sess.Requirements.Destination = "Lisbon"
	sess.Requirements.Preferences = []string{"beach", "museums"}
	sess.LastIntent = "planning"
	sess.Version = 3

	item, err := attributevalue.MarshalMap(sess)
	require.NoError(t, err)

	var got Session
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	assert.Equal(t, sess.Requirements.Destination, got.Requirements.Destination)
	assert.Equal(t, sess.Requirements.Preferences, got.Requirements.Preferences)
	assert.Equal(t, sess.Version, got.Version)
}
