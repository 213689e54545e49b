package service

import (
	"context"
	"time"

	"github.com/brushline/paintquote/internal/application/dispatcher"
	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/brushline/paintquote/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Policy holds the business settings shared by the lifecycle services
type Policy struct {
	// DepositPercent of the accepted tier total is requested as deposit.
	DepositPercent decimal.Decimal
	AllowZeroPrice bool
	// Epsilon bounds the drift accepted when totals are reconciled.
	Epsilon  decimal.Decimal
	Currency string
	// AmountTolerance bounds the difference between a paid and an expected amount.
	AmountTolerance decimal.Decimal
	// VerifyWithGateway re-reads each payment from the gateway before reconciling it.
	VerifyWithGateway bool
}

// DefaultPolicy returns the settings used when none are configured
func DefaultPolicy() Policy {
	return Policy{
		DepositPercent:  decimal.NewFromInt(30),
		Epsilon:         pricing.DefaultEpsilon,
		Currency:        "USD",
		AmountTolerance: pricing.DefaultEpsilon,
	}
}

// Deps are the collaborators shared by the lifecycle services
type Deps struct {
	Quotes   port.QuoteRepository
	Jobs     port.JobRepository
	Payments port.PaymentRepository
	Audit    *AuditRecorder
	Tx       port.TransactionManager
	Events   dispatcher.Dispatcher
	Metrics  port.Metrics
	Logger   Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// publish hands a committed event to the dispatcher
func (d Deps) publish(ctx context.Context, evt *event.Event) {
	if d.Events == nil {
		return
	}
	d.Events.DispatchAsync(ctx, evt)
}

func (d Deps) transitioned(entityType entity.EntityType, from, to string) {
	if from == to {
		return
	}
	d.Metrics.Transition(string(entityType), from, to)
}

type nopMetrics struct{}

func (nopMetrics) Transition(string, string, string)           {}
func (nopMetrics) ReconcileOutcome(entity.PaymentKind, string) {}

func timeRef(t time.Time) *time.Time {
	return &t
}
