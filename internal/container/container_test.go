package container

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []event.Type
}

func (n *recordingNotifier) Notify(ctx context.Context, evt *event.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt.Type)
	return nil
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "container.db")
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Policy.VerifyWithGateway = true
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	notifier := &recordingNotifier{}
	c, err := NewContainer(testConfig(t), zap.NewNop(), WithNotifier(notifier))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx))

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Nil(t, c.Gateway())
	assert.NotNil(t, c.Metrics())
	assert.NotNil(t, c.Takeoff())

	quotes := c.Services().Quotes
	q, err := quotes.CreateQuote(ctx, service.CreateQuoteInput{
		TenantID:      "tenant-1",
		ActorID:       "estimator-1",
		CustomerName:  "Pat Lee",
		CustomerEmail: "pat@example.com",
		Scheme: entity.TurnkeyScheme{Rates: map[string]decimal.Decimal{
			"walls": decimal.NewFromInt(4),
		}},
		Strategy: entity.StrategySingle,
		Areas: []entity.Area{{ID: "den", Name: "Den", Surfaces: []entity.Surface{
			{ID: "walls", Category: "walls", Unit: entity.UnitSqft, Quantity: decimal.NewFromInt(250)},
		}}},
	})
	require.NoError(t, err)
	_, err = quotes.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []event.Type{event.TypeQuoteSent}, notifier.events)
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("job_id", "job-1", 42, "skipped", "count", 3, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "job_id", fields[0].Key)
	assert.Equal(t, "count", fields[1].Key)
}
