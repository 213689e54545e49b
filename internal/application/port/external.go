package port

import (
	"context"

	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/shopspring/decimal"
)

// GatewaySession is the gateway's view of a payment
type GatewaySession struct {
	ReferenceID string
	Status      entity.PaymentStatus
	Amount      decimal.Decimal
	Currency    string
}

// PaymentGateway queries the external payment gateway. Never call it inside a transaction.
type PaymentGateway interface {
	SessionStatus(ctx context.Context, referenceID string) (*GatewaySession, error)
}

// Notifier delivers customer and contractor notifications
type Notifier interface {
	Notify(ctx context.Context, evt *event.Event) error
}

// AuditArchive is a durable off-site copy of the audit ledger
type AuditArchive interface {
	Put(ctx context.Context, entry *entity.AuditLogEntry) error
}

// Metrics records lifecycle telemetry
type Metrics interface {
	Transition(entity, from, to string)
	ReconcileOutcome(kind entity.PaymentKind, outcome string)
}
