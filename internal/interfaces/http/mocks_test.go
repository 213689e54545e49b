package http

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/entity"
)

var errNotStubbed = errors.New("not stubbed")

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockQuoteService struct {
	createFunc  func(ctx context.Context, in service.CreateQuoteInput) (*entity.Quote, error)
	getFunc     func(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error)
	byNumFunc   func(ctx context.Context, tenantID, number string) (*entity.Quote, error)
	listFunc    func(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error)
	updateFunc  func(ctx context.Context, tenantID, quoteID, actorID string, changes service.DraftChanges) (*entity.Quote, error)
	sendFunc    func(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error)
	acceptFunc  func(ctx context.Context, tenantID, quoteID string, tier entity.Tier, actorID string) (*entity.Quote, *entity.Job, error)
	declineFunc func(ctx context.Context, tenantID, quoteID, actorID, reason string) (*entity.Quote, error)
}

func (m *mockQuoteService) CreateQuote(ctx context.Context, in service.CreateQuoteInput) (*entity.Quote, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) GetQuote(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, tenantID, quoteID)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) GetQuoteByNumber(ctx context.Context, tenantID, number string) (*entity.Quote, error) {
	if m.byNumFunc != nil {
		return m.byNumFunc(ctx, tenantID, number)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) ListQuotes(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, tenantID, filter)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) UpdateDraft(ctx context.Context, tenantID, quoteID, actorID string, changes service.DraftChanges) (*entity.Quote, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, tenantID, quoteID, actorID, changes)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) SendQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, tenantID, quoteID, actorID)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) RecordCustomerView(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error) {
	return nil, errNotStubbed
}

func (m *mockQuoteService) AcceptQuote(ctx context.Context, tenantID, quoteID string, tier entity.Tier, actorID string) (*entity.Quote, *entity.Job, error) {
	if m.acceptFunc != nil {
		return m.acceptFunc(ctx, tenantID, quoteID, tier, actorID)
	}
	return nil, nil, errNotStubbed
}

func (m *mockQuoteService) DeclineQuote(ctx context.Context, tenantID, quoteID, actorID, reason string) (*entity.Quote, error) {
	if m.declineFunc != nil {
		return m.declineFunc(ctx, tenantID, quoteID, actorID, reason)
	}
	return nil, errNotStubbed
}

func (m *mockQuoteService) ArchiveQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	return nil, errNotStubbed
}

func (m *mockQuoteService) DeactivateQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	return nil, errNotStubbed
}

func (m *mockQuoteService) ReviseQuote(ctx context.Context, tenantID, quoteID, actorID string, changes service.DraftChanges) (*entity.Quote, error) {
	return nil, errNotStubbed
}

type mockJobService struct {
	getFunc      func(ctx context.Context, tenantID, jobID string) (*entity.Job, error)
	scheduleFunc func(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string) (*entity.Job, error)
	completeFunc func(ctx context.Context, tenantID, jobID, actorID string, in service.CompleteJobInput) (*entity.Job, error)
	auditFunc    func(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error)
}

func (m *mockJobService) GetJob(ctx context.Context, tenantID, jobID string) (*entity.Job, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, tenantID, jobID)
	}
	return nil, errNotStubbed
}

func (m *mockJobService) ListJobs(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error) {
	return nil, nil
}

func (m *mockJobService) ScheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string) (*entity.Job, error) {
	if m.scheduleFunc != nil {
		return m.scheduleFunc(ctx, tenantID, jobID, actorID, start, end, crew)
	}
	return nil, errNotStubbed
}

func (m *mockJobService) RescheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string, reason string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) StartJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) UpdateAreaProgress(ctx context.Context, tenantID, jobID, actorID, areaID string, status entity.AreaProgressStatus) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) SubmitCustomerSelections(ctx context.Context, tenantID, jobID string, selections []entity.CustomerSelection) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) CompleteJob(ctx context.Context, tenantID, jobID, actorID string, in service.CompleteJobInput) (*entity.Job, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, tenantID, jobID, actorID, in)
	}
	return nil, errNotStubbed
}

func (m *mockJobService) HoldJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) PauseJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) ResumeJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) CancelJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	return nil, errNotStubbed
}

func (m *mockJobService) AuditTrail(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error) {
	if m.auditFunc != nil {
		return m.auditFunc(ctx, tenantID, entityType, entityID)
	}
	return nil, errNotStubbed
}

type mockPaymentService struct {
	reconcileFunc func(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error)
	failedFunc    func(ctx context.Context, notice service.PaymentFailedNotice) (*service.ReconcileResult, error)
}

func (m *mockPaymentService) OpenDepositPayment(ctx context.Context, tenantID, quoteID, referenceID, actorID string) (*entity.PaymentRecord, error) {
	return nil, errNotStubbed
}

func (m *mockPaymentService) OpenFinalPayment(ctx context.Context, tenantID, jobID, referenceID, actorID string) (*entity.PaymentRecord, error) {
	return nil, errNotStubbed
}

func (m *mockPaymentService) ReconcileDeposit(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
	return nil, errNotStubbed
}

func (m *mockPaymentService) ReconcileFinalPayment(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
	return nil, errNotStubbed
}

func (m *mockPaymentService) Reconcile(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx, evt)
	}
	return nil, errNotStubbed
}

func (m *mockPaymentService) HandlePaymentFailed(ctx context.Context, notice service.PaymentFailedNotice) (*service.ReconcileResult, error) {
	if m.failedFunc != nil {
		return m.failedFunc(ctx, notice)
	}
	return nil, errNotStubbed
}

func (m *mockPaymentService) ListPayments(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error) {
	return nil, nil
}

type mockGateway struct {
	sessionFunc func(ctx context.Context, referenceID string) (*port.GatewaySession, error)
}

func (m *mockGateway) SessionStatus(ctx context.Context, referenceID string) (*port.GatewaySession, error) {
	return m.sessionFunc(ctx, referenceID)
}

type mockImporter struct {
	areas []entity.Area
	err   error
	read  []byte
}

func (m *mockImporter) Import(r io.Reader) ([]entity.Area, error) {
	m.read, _ = io.ReadAll(r)
	return m.areas, m.err
}
