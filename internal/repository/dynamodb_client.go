package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pointing-poker/internal/domain"
)

const (
	attrPartitionKey = "sessionID"
	attrSortKey      = "id"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ReadWriter defines the session store operations consumed by the service.
// Get and GetParticipant return nil with a nil error when nothing is stored.
type ReadWriter interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetParticipant(ctx context.Context, sessionID, participantID string) (*domain.Participant, error)
	AddParticipant(ctx context.Context, sessionID string, participant domain.Participant) error
	RemoveParticipant(ctx context.Context, sessionID, participantID string) error
}

var (
	_ ReadWriter = (*Client)(nil)
	_ ReadWriter = (*BadgerStore)(nil)
)

// Client wraps a DynamoDB table holding session and participant records.
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

// itemKey returns the primary key of the record (sessionID, id).
func itemKey(sessionID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: sessionID},
		attrSortKey:      &types.AttributeValueMemberS{Value: id},
	}
}

func itemDecoder(item map[string]types.AttributeValue) decodeFunc {
	return func(v any) error {
		return attributevalue.UnmarshalMap(item, v)
	}
}

// Create writes the session record. An existing record with the same id is replaced.
func (c *Client) Create(ctx context.Context, session domain.Session) error {
	if session.ID == "" {
		return errors.New("repository: Create: session id is required")
	}
	item, err := attributevalue.MarshalMap(newSessionRecord(session))
	if err != nil {
		return fmt.Errorf("repository: Create marshal: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: Create: %w", err)
	}
	return nil
}

// Get queries every record in the session partition and assembles the session
// with its participants.
func (c *Client) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("sessionID = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: aws.Bool(true),
	}

	var records []decodeFunc
	pages := dynamodb.NewQueryPaginator(c.api, in)
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("repository: Get query: %w", err)
		}
		for _, item := range out.Items {
			records = append(records, itemDecoder(item))
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	session, err := assembleSession(sessionID, records)
	if err != nil {
		return nil, fmt.Errorf("repository: Get: %w", err)
	}
	return session, nil
}

// GetParticipant looks up a single participant record. Keys holding a record of
// another type are reported as absent.
func (c *Client) GetParticipant(ctx context.Context, sessionID, participantID string) (*domain.Participant, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            itemKey(sessionID, participantID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetParticipant get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	decode := itemDecoder(out.Item)
	_, rt, err := recordType(decode)
	if err != nil {
		return nil, fmt.Errorf("repository: GetParticipant: %w", err)
	}
	if rt != domain.RecordTypeParticipant {
		return nil, nil
	}
	var rec participantRecord
	if err := decodeRecord(decode, &rec, "participant record"); err != nil {
		return nil, fmt.Errorf("repository: GetParticipant: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

// AddParticipant writes a participant record, replacing any record with the same id.
func (c *Client) AddParticipant(ctx context.Context, sessionID string, participant domain.Participant) error {
	if err := checkParticipantKey(sessionID, participant.ID); err != nil {
		return fmt.Errorf("repository: AddParticipant: %w", err)
	}
	item, err := attributevalue.MarshalMap(newParticipantRecord(sessionID, participant))
	if err != nil {
		return fmt.Errorf("repository: AddParticipant marshal: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: AddParticipant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes a participant record. Deleting a missing key is not an error.
func (c *Client) RemoveParticipant(ctx context.Context, sessionID, participantID string) error {
	if err := checkParticipantKey(sessionID, participantID); err != nil {
		return fmt.Errorf("repository: RemoveParticipant: %w", err)
	}
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       itemKey(sessionID, participantID),
	})
	if err != nil {
		return fmt.Errorf("repository: RemoveParticipant: %w", err)
	}
	return nil
}
