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

	"suggestion-agent/internal/domain"
)

const (
	skPrefixAttempt = "ATTEMPT#"
	skMeta          = "META#"
	ttlDuration     = 30 * 24 * time.Hour // 30-day TTL
)

// ErrNotFound is returned when no record exists for a request ID.
var ErrNotFound = errors.New("repository: record not found")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// ReadWriter defines the suggestion log operations consumed by the use case.
type ReadWriter interface {
	SaveOutcome(ctx context.Context, rec domain.SuggestionRecord) error
	GetRecord(ctx context.Context, requestID string) (domain.SuggestionRecord, error)
}

// Client wraps a DynamoDB table holding the suggestion audit log.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// reqPK returns the DynamoDB partition key for a request.
func reqPK(requestID string) string {
	return "REQ#" + requestID
}

func attemptSK(i int) string {
	return fmt.Sprintf("%s%02d", skPrefixAttempt, i)
}

// ttlValue returns a Unix timestamp 30 days after now.
func ttlValue(now time.Time) int64 {
	return now.Add(ttlDuration).Unix()
}

// NewRecord constructs a SuggestionRecord with CreatedAt and TTL set from the current time.
func NewRecord(requestID, prompt string) domain.SuggestionRecord {
	now := time.Now().UTC()
	return domain.SuggestionRecord{
		RequestID: requestID,
		Prompt:    prompt,
		Status:    domain.StatusAbsent,
		CreatedAt: now.Format(time.RFC3339Nano),
		TTL:       ttlValue(now),
	}
}

// SaveOutcome writes the record metadata and every attempt in one transaction.
func (c *Client) SaveOutcome(ctx context.Context, rec domain.SuggestionRecord) error {
	if strings.TrimSpace(rec.RequestID) == "" {
		return errors.New("repository: SaveOutcome: request ID is required")
	}

	items := make([]types.TransactWriteItem, 0, len(rec.Attempts)+1)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(c.tableName),
			Item:                metaItem(rec),
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		},
	})
	for i, a := range rec.Attempts {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(c.tableName),
				Item:      attemptItem(rec.RequestID, i, a, rec.TTL),
			},
		})
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("repository: SaveOutcome: %w", err)
	}
	return nil
}

// GetRecord loads the metadata item and its attempts in chronological order.
func (c *Client) GetRecord(ctx context.Context, requestID string) (domain.SuggestionRecord, error) {
	pk := reqPK(requestID)

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.SuggestionRecord{}, fmt.Errorf("repository: GetRecord get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.SuggestionRecord{}, ErrNotFound
	}
	rec, err := itemToRecord(out.Item)
	if err != nil {
		return domain.SuggestionRecord{}, fmt.Errorf("repository: GetRecord decode: %w", err)
	}

	q, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixAttempt},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return domain.SuggestionRecord{}, fmt.Errorf("repository: GetRecord query attempts: %w", err)
	}
	if q == nil {
		return rec, nil
	}
	for _, item := range q.Items {
		a, err := itemToAttempt(item)
		if err != nil {
			return domain.SuggestionRecord{}, fmt.Errorf("repository: GetRecord decode attempt: %w", err)
		}
		rec.Attempts = append(rec.Attempts, a)
	}
	return rec, nil
}

func metaItem(rec domain.SuggestionRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: reqPK(rec.RequestID)},
		"SK":         &types.AttributeValueMemberS{Value: skMeta},
		"requestId":  &types.AttributeValueMemberS{Value: rec.RequestID},
		"prompt":     &types.AttributeValueMemberS{Value: rec.Prompt},
		"suggestion": &types.AttributeValueMemberS{Value: rec.Suggestion},
		"provider":   &types.AttributeValueMemberS{Value: rec.Provider},
		"status":     &types.AttributeValueMemberS{Value: rec.Status},
		"createdAt":  &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"attempts":   &types.AttributeValueMemberN{Value: strconv.Itoa(len(rec.Attempts))},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}

func attemptItem(requestID string, i int, a domain.ProviderAttempt, ttl int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: reqPK(requestID)},
		"SK":       &types.AttributeValueMemberS{Value: attemptSK(i)},
		"provider": &types.AttributeValueMemberS{Value: a.Provider},
		"ok":       &types.AttributeValueMemberBOOL{Value: a.OK},
		"error":    &types.AttributeValueMemberS{Value: a.Error},
		"ttl":      &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
	}
}

// itemToRecord converts a META# attribute map to a SuggestionRecord without attempts.
func itemToRecord(item map[string]types.AttributeValue) (domain.SuggestionRecord, error) {
	requestID, err := strAttr(item, "requestId")
	if err != nil {
		return domain.SuggestionRecord{}, err
	}
	prompt, err := strAttr(item, "prompt")
	if err != nil {
		return domain.SuggestionRecord{}, err
	}
	status, err := strAttr(item, "status")
	if err != nil {
		return domain.SuggestionRecord{}, err
	}
	suggestion, _ := strAttr(item, "suggestion") // allow empty
	provider, _ := strAttr(item, "provider")     // allow empty
	createdAt, _ := strAttr(item, "createdAt")   // allow empty
	ttl, _ := int64Attr(item, "ttl")             // allow missing

	return domain.SuggestionRecord{
		RequestID:  requestID,
		Prompt:     prompt,
		Suggestion: suggestion,
		Provider:   provider,
		Status:     status,
		CreatedAt:  createdAt,
		TTL:        ttl,
	}, nil
}

func itemToAttempt(item map[string]types.AttributeValue) (domain.ProviderAttempt, error) {
	provider, err := strAttr(item, "provider")
	if err != nil {
		return domain.ProviderAttempt{}, err
	}
	ok, err := boolAttr(item, "ok")
	if err != nil {
		return domain.ProviderAttempt{}, err
	}
	errText, _ := strAttr(item, "error") // allow empty
	return domain.ProviderAttempt{Provider: provider, OK: ok, Error: errText}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func boolAttr(item map[string]types.AttributeValue, key string) (bool, error) {
	v, ok := item[key]
	if !ok {
		return false, fmt.Errorf("repository: missing attribute %q", key)
	}
	b, ok := v.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false, fmt.Errorf("repository: attribute %q is not a bool", key)
	}
	return b.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
