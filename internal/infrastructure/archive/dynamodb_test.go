package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPutItem struct {
	putItemFunc func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
}

func (m *mockPutItem) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.putItemFunc(ctx, params)
}

func sampleEntry() *entity.AuditLogEntry {
	return &entity.AuditLogEntry{
		Seq:            7,
		ID:             "audit-7",
		TenantID:       "tenant-1",
		EntityType:     entity.EntityJob,
		EntityID:       "job-1",
		Action:         entity.ActionDepositVerified,
		PreviousStatus: "accepted",
		NewStatus:      "deposit_paid",
		ActorID:        "system",
		Data:           `{"amount":"624.00"}`,
		CreatedAt:      time.Date(2026, 4, 14, 15, 0, 0, 0, time.UTC),
	}
}

func TestDynamoArchive_Put(t *testing.T) {
	var got *dynamodb.PutItemInput
	a := &DynamoArchive{
		ddb: &mockPutItem{putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			got = params
			return &dynamodb.PutItemOutput{}, nil
		}},
		tableName: "audit-archive",
		logger:    zap.NewNop(),
	}

	require.NoError(t, a.Put(context.Background(), sampleEntry()))
	require.NotNil(t, got)
	assert.Equal(t, "audit-archive", *got.TableName)
	assert.Equal(t, "attribute_not_exists(#seq)", *got.ConditionExpression)

	var item auditItem
	require.NoError(t, attributevalue.UnmarshalMap(got.Item, &item))
	assert.Equal(t, int64(7), item.Seq)
	assert.Equal(t, "deposit_paid", item.NewStatus)
	assert.Equal(t, "2026-04-14T15:00:00Z", item.CreatedAt)
	assert.NotContains(t, got.Item, "reason")
}

func TestDynamoArchive_PutErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"already archived", &types.ConditionalCheckFailedException{}, false},
		{"throttled", errors.New("ProvisionedThroughputExceededException"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &DynamoArchive{
				ddb: &mockPutItem{putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
					return nil, tt.err
				}},
				tableName: "audit-archive",
				logger:    zap.NewNop(),
			}
			err := a.Put(context.Background(), sampleEntry())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
