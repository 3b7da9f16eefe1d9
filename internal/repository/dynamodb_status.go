package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixChat = "CHAT#"
	skStatus     = "STATUS"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStatusStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStatusStore keeps one item per enabled chat in a DynamoDB table.
type DynamoStatusStore struct {
	api       dynamodbAPI
	tableName string
	timeout   time.Duration
}

// NewDynamoStatusStore creates a status store over the given table.
func NewDynamoStatusStore(api dynamodbAPI, tableName string, timeout time.Duration) (*DynamoStatusStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoStatusStore{api: api, tableName: tableName, timeout: timeout}, nil
}

// chatPK returns the partition key for a chat's status item.
func chatPK(chatID int64) string {
	return pkPrefixChat + strconv.FormatInt(chatID, 10)
}

func (s *DynamoStatusStore) key(chatID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: chatPK(chatID)},
		"SK": &types.AttributeValueMemberS{Value: skStatus},
	}
}

// IsEnabled reports whether a status item exists for the chat.
func (s *DynamoStatusStore) IsEnabled(ctx context.Context, chatID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  s.key(chatID),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, unavailable("IsEnabled get item", err)
	}
	return out != nil && len(out.Item) > 0, nil
}

// Enable writes the status item unless it already exists.
func (s *DynamoStatusStore) Enable(ctx context.Context, chatID int64) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	item := s.key(chatID)
	item["chatId"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(chatID, 10)}
	item["enabledAt"] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return nil
		}
		return unavailable("Enable put item", err)
	}
	return nil
}

// Disable removes the status item; removing a missing item is not an error.
func (s *DynamoStatusStore) Disable(ctx context.Context, chatID int64) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(chatID),
	})
	if err != nil {
		return unavailable("Disable delete item", err)
	}
	return nil
}

// EnsureSchema checks that the table exists. Tables are provisioned out of band.
func (s *DynamoStatusStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		var missing *types.ResourceNotFoundException
		if errors.As(err, &missing) {
			return fmt.Errorf("repository: EnsureSchema: table %q does not exist", s.tableName)
		}
		return unavailable("EnsureSchema describe table", err)
	}
	return nil
}
