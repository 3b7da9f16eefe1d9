package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory keyed by PK and honours attribute_not_exists on PutItem.
type fakeDynamo struct {
	items       map[string]map[string]types.AttributeValue
	getErr      error
	putErr      error
	deleteErr   error
	describeErr error
	putCalls    int
	lastGetIn   *dynamodb.GetItemInput
	lastPutIn   *dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pkOf(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetIn = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	f.lastPutIn = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	pk := pkOf(in.Item)
	if _, ok := f.items[pk]; ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("exists")}
	}
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.items, pkOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, f.describeErr
}

func strPtr(s string) *string { return &s }

func mustNewDynamoStore(t *testing.T, db *fakeDynamo) *DynamoStatusStore {
	t.Helper()
	s, err := NewDynamoStatusStore(db, "chatbot-status", time.Second)
	require.NoError(t, err)
	return s
}

func TestNewDynamoStatusStore_ValidatesDependencies(t *testing.T) {
	_, err := NewDynamoStatusStore(nil, "t", time.Second)
	require.Error(t, err)

	_, err = NewDynamoStatusStore(newFakeDynamo(), " ", time.Second)
	require.Error(t, err)
}

func TestDynamoStatusStore_EnableDisableCycle(t *testing.T) {
	db := newFakeDynamo()
	s := mustNewDynamoStore(t, db)
	ctx := context.Background()

	enabled, err := s.IsEnabled(ctx, -100123)
	require.NoError(t, err)
	require.False(t, enabled)

	require.NoError(t, s.Enable(ctx, -100123))
	enabled, err = s.IsEnabled(ctx, -100123)
	require.NoError(t, err)
	require.True(t, enabled)
	require.True(t, *db.lastGetIn.ConsistentRead)

	require.NoError(t, s.Disable(ctx, -100123))
	enabled, err = s.IsEnabled(ctx, -100123)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestDynamoStatusStore_EnableIsIdempotent(t *testing.T) {
	db := newFakeDynamo()
	s := mustNewDynamoStore(t, db)

	require.NoError(t, s.Enable(context.Background(), 42))
	require.NoError(t, s.Enable(context.Background(), 42))
	require.Equal(t, 2, db.putCalls)
	require.Len(t, db.items, 1)
	require.Equal(t, "CHAT#42", pkOf(db.lastPutIn.Item))
}

func TestDynamoStatusStore_DisableWithoutEnable(t *testing.T) {
	s := mustNewDynamoStore(t, newFakeDynamo())
	require.NoError(t, s.Disable(context.Background(), 7))
	require.NoError(t, s.Disable(context.Background(), 7))
}

func TestDynamoStatusStore_ErrorsAreUnavailable(t *testing.T) {
	db := newFakeDynamo()
	db.getErr = errors.New("connection refused")
	db.putErr = errors.New("throttled")
	db.deleteErr = errors.New("timeout")
	s := mustNewDynamoStore(t, db)

	_, err := s.IsEnabled(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorContains(t, err, "connection refused")

	err = s.Enable(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Contains(t, err.Error(), "Enable")

	err = s.Disable(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDynamoStatusStore_EnsureSchema(t *testing.T) {
	db := newFakeDynamo()
	s := mustNewDynamoStore(t, db)
	require.NoError(t, s.EnsureSchema(context.Background()))

	db.describeErr = &types.ResourceNotFoundException{Message: strPtr("missing")}
	err := s.EnsureSchema(context.Background())
	require.ErrorContains(t, err, "does not exist")
	require.NotErrorIs(t, err, ErrUnavailable)

	db.describeErr = errors.New("boom")
	require.ErrorIs(t, s.EnsureSchema(context.Background()), ErrUnavailable)
}
