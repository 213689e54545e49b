package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brushline/paintquote/internal/domain/entity"
	"go.uber.org/zap"
)

// ClientConfig locates the DynamoDB endpoint
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg ClientConfig) (*dynamodb.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// putItemAPI is the part of the DynamoDB client the archive uses
type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// auditItem is the DynamoDB shape of an audit entry.
// Table requirements: PK tenant_id (string), SK seq (number).
type auditItem struct {
	TenantID       string `dynamodbav:"tenant_id"`
	Seq            int64  `dynamodbav:"seq"`
	ID             string `dynamodbav:"id"`
	EntityType     string `dynamodbav:"entity_type"`
	EntityID       string `dynamodbav:"entity_id"`
	Action         string `dynamodbav:"action"`
	PreviousStatus string `dynamodbav:"previous_status,omitempty"`
	NewStatus      string `dynamodbav:"new_status,omitempty"`
	ActorID        string `dynamodbav:"actor_id"`
	Reason         string `dynamodbav:"reason,omitempty"`
	Data           string `dynamodbav:"data,omitempty"`
	CreatedAt      string `dynamodbav:"created_at"`
}

func toAuditItem(e *entity.AuditLogEntry) auditItem {
	return auditItem{
		TenantID:       e.TenantID,
		Seq:            e.Seq,
		ID:             e.ID,
		EntityType:     string(e.EntityType),
		EntityID:       e.EntityID,
		Action:         e.Action,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		ActorID:        e.ActorID,
		Reason:         e.Reason,
		Data:           e.Data,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// DynamoArchive writes audit entries to a DynamoDB table. Items are never
// overwritten; re-archiving an entry is a no-op.
type DynamoArchive struct {
	ddb       putItemAPI
	tableName string
	logger    *zap.Logger
}

// NewDynamoArchive creates an archive writing to tableName
func NewDynamoArchive(ddb *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoArchive {
	return &DynamoArchive{ddb: ddb, tableName: tableName, logger: logger}
}

// Put stores one entry
func (a *DynamoArchive) Put(ctx context.Context, entry *entity.AuditLogEntry) error {
	av, err := attributevalue.MarshalMap(toAuditItem(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry %d: %w", entry.Seq, err)
	}

	_, err = a.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#seq)"),
		ExpressionAttributeNames: map[string]string{
			"#seq": "seq",
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			a.logger.Debug("Audit entry already archived", zap.Int64("seq", entry.Seq))
			return nil
		}
		return fmt.Errorf("failed to archive audit entry %d: %w", entry.Seq, err)
	}
	return nil
}
