package service

import (
	"context"
	"errors"
	"strings"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/brushline/paintquote/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reconciliation outcomes reported to logs and metrics
const (
	OutcomeApplied        = "applied"
	OutcomeDuplicate      = "duplicate"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeNotFound       = "not_found"
	OutcomePaymentFailed  = "payment_failed"
	OutcomeError          = "error"
)

// PaymentSucceeded is the gateway notification of a captured payment
type PaymentSucceeded struct {
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
	Metadata    map[string]string
}

// PaymentFailedNotice is the gateway notification of a failed payment
type PaymentFailedNotice struct {
	ReferenceID string
	Reason      string
}

// ReconcileResult reports what a reconciliation did
type ReconcileResult struct {
	Outcome string
	Payment *entity.PaymentRecord
	Job     *entity.Job
}

// PaymentService registers expected payments and reconciles gateway events against them
type PaymentService interface {
	OpenDepositPayment(ctx context.Context, tenantID, quoteID, referenceID, actorID string) (*entity.PaymentRecord, error)
	OpenFinalPayment(ctx context.Context, tenantID, jobID, referenceID, actorID string) (*entity.PaymentRecord, error)
	ReconcileDeposit(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error)
	ReconcileFinalPayment(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error)
	// Reconcile routes evt to the reconciler matching the stored payment kind.
	Reconcile(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error)
	HandlePaymentFailed(ctx context.Context, notice PaymentFailedNotice) (*ReconcileResult, error)
	ListPayments(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error)
}

type paymentServiceImpl struct {
	Deps
	gateway port.PaymentGateway
	policy  Policy
}

// NewPaymentService creates a new PaymentService. gateway may be nil when
// verification is disabled.
func NewPaymentService(deps Deps, gateway port.PaymentGateway, policy Policy) PaymentService {
	return &paymentServiceImpl{
		Deps:    deps.withDefaults(),
		gateway: gateway,
		policy:  policy,
	}
}

// OpenDepositPayment registers the deposit expected for an accepted quote
func (s *paymentServiceImpl) OpenDepositPayment(ctx context.Context, tenantID, quoteID, referenceID, actorID string) (*entity.PaymentRecord, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, apperr.Validation("reference_id", "is required")
	}

	var record *entity.PaymentRecord
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		quote, err := s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if quote.Status != entity.QuoteAccepted {
			return apperr.Validation("quote_id", "quote %s is %s, not accepted", quote.QuoteNumber, quote.Status)
		}

		job, err := s.Jobs.GetByQuoteID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if job.DepositPaid {
			return &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "open deposit payment"}
		}

		record = s.newRecord(tenantID, referenceID, entity.PaymentDeposit, quote.ID, job.ID, job.DepositAmount, job.Currency)
		return s.open(txCtx, record, actorID)
	})
	if err != nil {
		s.Logger.Error("Failed to open deposit payment", "error", err, "quote_id", quoteID)
		return nil, err
	}
	return record, nil
}

// OpenFinalPayment registers the balance expected for a completed job
func (s *paymentServiceImpl) OpenFinalPayment(ctx context.Context, tenantID, jobID, referenceID, actorID string) (*entity.PaymentRecord, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, apperr.Validation("reference_id", "is required")
	}

	var record *entity.PaymentRecord
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		job, err := s.Jobs.GetByID(txCtx, tenantID, jobID)
		if err != nil {
			return err
		}
		if job.Status != entity.JobCompleted || job.FinalPaymentStatus != entity.FinalPaymentPending {
			return &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "open final payment"}
		}

		record = s.newRecord(tenantID, referenceID, entity.PaymentFinal, job.QuoteID, job.ID, job.BalanceRemaining, job.Currency)
		return s.open(txCtx, record, actorID)
	})
	if err != nil {
		s.Logger.Error("Failed to open final payment", "error", err, "job_id", jobID)
		return nil, err
	}
	return record, nil
}

func (s *paymentServiceImpl) newRecord(tenantID, referenceID string, kind entity.PaymentKind, quoteID, jobID string, amount decimal.Decimal, currency string) *entity.PaymentRecord {
	now := s.Now()
	return &entity.PaymentRecord{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ReferenceID:    referenceID,
		Kind:           kind,
		QuoteID:        quoteID,
		JobID:          jobID,
		ExpectedAmount: amount,
		Currency:       currency,
		Status:         entity.PaymentPending,
		PaidAmount:     decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *paymentServiceImpl) open(ctx context.Context, record *entity.PaymentRecord, actorID string) error {
	if err := s.Payments.Create(ctx, record); err != nil {
		return err
	}
	return s.Audit.Record(ctx, Change{
		TenantID:   record.TenantID,
		EntityType: entity.EntityPayment,
		EntityID:   record.ID,
		Action:     entity.ActionPaymentOpened,
		To:         string(entity.PaymentPending),
		ActorID:    actorID,
		Data: map[string]string{
			"reference_id": record.ReferenceID,
			"kind":         string(record.Kind),
			"expected":     record.ExpectedAmount.StringFixed(2),
			"currency":     record.Currency,
		},
	})
}

// Reconcile routes evt by the kind of the stored record
func (s *paymentServiceImpl) Reconcile(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error) {
	record, err := s.Payments.GetByReference(ctx, evt.ReferenceID)
	if err != nil {
		s.report(entity.PaymentDeposit, evt.ReferenceID, err)
		return nil, err
	}
	if record.Kind == entity.PaymentFinal {
		return s.ReconcileFinalPayment(ctx, evt)
	}
	return s.ReconcileDeposit(ctx, evt)
}

// ReconcileDeposit applies a deposit payment: marks it paid, moves the job to
// deposit_paid and opens the customer portal. Replays succeed without effect.
func (s *paymentServiceImpl) ReconcileDeposit(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error) {
	evt, err := s.verify(ctx, evt)
	if err != nil {
		s.report(entity.PaymentDeposit, evt.ReferenceID, err)
		return nil, err
	}

	result := &ReconcileResult{}
	var created bool
	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.load(txCtx, evt, entity.PaymentDeposit)
		if err != nil {
			return err
		}
		result.Payment = record
		if record.Status == entity.PaymentPaid {
			result.Outcome = OutcomeDuplicate
			return nil
		}
		if err := s.checkAmount(record, record.ExpectedAmount, evt); err != nil {
			return err
		}

		quote, err := s.Quotes.GetByID(txCtx, record.TenantID, record.QuoteID)
		if err != nil {
			return err
		}
		job, err := s.Jobs.GetByQuoteID(txCtx, record.TenantID, record.QuoteID)
		if errors.Is(err, apperr.ErrNotFound) {
			job, err = createJobForQuote(txCtx, s.Deps, s.policy, quote, "system")
			created = err == nil
		}
		if err != nil {
			return err
		}

		from := job.Status
		if err := fireJob(job, workflow.TriggerVerifyDeposit); err != nil {
			return err
		}
		now := s.Now()
		paid := evt.Amount.Round(2)
		job.DepositPaid = true
		job.DepositPaidAt = timeRef(now)
		job.DepositAmount = paid
		job.BalanceRemaining = job.Total.Sub(paid)
		job.PortalOpen = true
		job.UpdatedAt = now
		if err := s.Jobs.Update(txCtx, job); err != nil {
			return err
		}

		s.markPaid(record, job.ID, paid)
		if err := s.Payments.Update(txCtx, record); err != nil {
			return err
		}

		result.Job = job
		result.Outcome = OutcomeApplied
		return s.Audit.Record(txCtx, Change{
			TenantID:   job.TenantID,
			EntityType: entity.EntityJob,
			EntityID:   job.ID,
			Action:     entity.ActionDepositVerified,
			From:       string(from),
			To:         string(job.Status),
			ActorID:    "system",
			Data: map[string]string{
				"reference_id": record.ReferenceID,
				"amount":       paid.StringFixed(2),
				"currency":     record.Currency,
			},
		})
	})
	if err != nil {
		s.report(entity.PaymentDeposit, evt.ReferenceID, err)
		return nil, err
	}

	s.Metrics.ReconcileOutcome(entity.PaymentDeposit, result.Outcome)
	if result.Outcome == OutcomeDuplicate {
		s.Logger.Info("Deposit already reconciled", "reference_id", evt.ReferenceID, "outcome", OutcomeDuplicate)
		return result, nil
	}

	if created {
		s.transitioned(entity.EntityJob, "", string(entity.JobAccepted))
	}
	s.transitioned(entity.EntityJob, string(entity.JobAccepted), string(result.Job.Status))
	s.publish(ctx, event.NewEvent(event.TypeDepositVerified, result.Job.TenantID, result.Job.ID, map[string]interface{}{
		"quote_number": result.Job.QuoteNumber,
		"reference_id": evt.ReferenceID,
		"amount":       result.Job.DepositAmount.StringFixed(2),
	}))
	s.Logger.Info("Deposit reconciled", "reference_id", evt.ReferenceID, "job_id", result.Job.ID, "outcome", OutcomeApplied)
	return result, nil
}

// ReconcileFinalPayment applies the final payment: credits it onto the paid
// total, forces the balance to zero and closes the job.
func (s *paymentServiceImpl) ReconcileFinalPayment(ctx context.Context, evt PaymentSucceeded) (*ReconcileResult, error) {
	evt, err := s.verify(ctx, evt)
	if err != nil {
		s.report(entity.PaymentFinal, evt.ReferenceID, err)
		return nil, err
	}

	result := &ReconcileResult{}
	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.load(txCtx, evt, entity.PaymentFinal)
		if err != nil {
			return err
		}
		result.Payment = record
		if record.Status == entity.PaymentPaid {
			result.Outcome = OutcomeDuplicate
			return nil
		}

		job, err := s.Jobs.GetByID(txCtx, record.TenantID, record.JobID)
		if err != nil {
			return err
		}
		if job.FinalPaymentStatus != entity.FinalPaymentPending {
			return &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "reconcile final payment"}
		}
		if err := s.checkAmount(record, job.BalanceRemaining, evt); err != nil {
			return err
		}

		from := job.Status
		if err := fireJob(job, workflow.TriggerClose); err != nil {
			return err
		}
		now := s.Now()
		paid := evt.Amount.Round(2)
		job.DepositAmount = job.DepositAmount.Add(paid)
		job.BalanceRemaining = decimal.Zero
		job.FinalPaymentStatus = entity.FinalPaymentPaid
		job.ClosedAt = timeRef(now)
		job.PortalOpen = false
		job.UpdatedAt = now
		if err := s.Jobs.Update(txCtx, job); err != nil {
			return err
		}

		s.markPaid(record, job.ID, paid)
		if err := s.Payments.Update(txCtx, record); err != nil {
			return err
		}

		result.Job = job
		result.Outcome = OutcomeApplied
		return s.Audit.Record(txCtx, Change{
			TenantID:   job.TenantID,
			EntityType: entity.EntityJob,
			EntityID:   job.ID,
			Action:     entity.ActionFinalPaymentReceived,
			From:       string(from),
			To:         string(job.Status),
			ActorID:    "system",
			Data: map[string]string{
				"reference_id": record.ReferenceID,
				"amount":       paid.StringFixed(2),
				"currency":     record.Currency,
			},
		})
	})
	if err != nil {
		s.report(entity.PaymentFinal, evt.ReferenceID, err)
		return nil, err
	}

	s.Metrics.ReconcileOutcome(entity.PaymentFinal, result.Outcome)
	if result.Outcome == OutcomeDuplicate {
		s.Logger.Info("Final payment already reconciled", "reference_id", evt.ReferenceID, "outcome", OutcomeDuplicate)
		return result, nil
	}

	s.transitioned(entity.EntityJob, string(entity.JobCompleted), string(result.Job.Status))
	s.publish(ctx, event.NewEvent(event.TypeFinalPaymentReceived, result.Job.TenantID, result.Job.ID, map[string]interface{}{
		"quote_number": result.Job.QuoteNumber,
		"reference_id": evt.ReferenceID,
		"amount":       result.Payment.PaidAmount.StringFixed(2),
	}))
	s.Logger.Info("Final payment reconciled", "reference_id", evt.ReferenceID, "job_id", result.Job.ID, "outcome", OutcomeApplied)
	return result, nil
}

// HandlePaymentFailed marks a pending payment failed. Quote and job state do not change.
func (s *paymentServiceImpl) HandlePaymentFailed(ctx context.Context, notice PaymentFailedNotice) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.Payments.GetByReference(txCtx, notice.ReferenceID)
		if err != nil {
			return err
		}
		result.Payment = record
		if record.Status != entity.PaymentPending {
			result.Outcome = OutcomeDuplicate
			return nil
		}

		record.Status = entity.PaymentFailed
		record.FailureReason = notice.Reason
		record.UpdatedAt = s.Now()
		if err := s.Payments.Update(txCtx, record); err != nil {
			return err
		}
		result.Outcome = OutcomePaymentFailed
		return s.Audit.Record(txCtx, Change{
			TenantID:   record.TenantID,
			EntityType: entity.EntityPayment,
			EntityID:   record.ID,
			Action:     entity.ActionPaymentFailed,
			From:       string(entity.PaymentPending),
			To:         string(entity.PaymentFailed),
			ActorID:    "system",
			Reason:     notice.Reason,
			Data:       map[string]string{"reference_id": record.ReferenceID},
		})
	})
	if err != nil {
		s.report(entity.PaymentDeposit, notice.ReferenceID, err)
		return nil, err
	}

	s.Metrics.ReconcileOutcome(result.Payment.Kind, result.Outcome)
	s.Logger.Info("Payment failure handled", "reference_id", notice.ReferenceID, "outcome", result.Outcome)
	if result.Outcome == OutcomePaymentFailed {
		s.publish(ctx, event.NewEvent(event.TypePaymentFailed, result.Payment.TenantID, result.Payment.ID, map[string]interface{}{
			"reference_id": notice.ReferenceID,
			"reason":       notice.Reason,
		}))
	}
	return result, nil
}

// ListPayments lists the payments of a job
func (s *paymentServiceImpl) ListPayments(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error) {
	return s.Payments.ListByJob(ctx, tenantID, jobID)
}

// verify replaces the event amount with the gateway's own record. It runs before
// any transaction opens.
func (s *paymentServiceImpl) verify(ctx context.Context, evt PaymentSucceeded) (PaymentSucceeded, error) {
	if !s.policy.VerifyWithGateway || s.gateway == nil {
		return evt, nil
	}
	session, err := s.gateway.SessionStatus(ctx, evt.ReferenceID)
	if err != nil {
		return evt, err
	}
	if session.Status != entity.PaymentPaid {
		return evt, apperr.Validation("reference_id", "gateway reports payment %s as %s", evt.ReferenceID, session.Status)
	}
	evt.Amount = session.Amount
	evt.Currency = session.Currency
	return evt, nil
}

func (s *paymentServiceImpl) load(ctx context.Context, evt PaymentSucceeded, kind entity.PaymentKind) (*entity.PaymentRecord, error) {
	record, err := s.Payments.GetByReference(ctx, evt.ReferenceID)
	if err != nil {
		return nil, err
	}
	if record.Kind != kind {
		return nil, apperr.Validation("reference_id", "payment %s is a %s payment", evt.ReferenceID, record.Kind)
	}
	if err := checkMetadata(record, evt.Metadata); err != nil {
		return nil, err
	}
	return record, nil
}

// metadataKeys maps record fields to the metadata keys gateways use for them
var metadataKeys = []struct {
	field string
	keys  []string
	value func(*entity.PaymentRecord) string
}{
	{"quote_id", []string{"quote_id", "quoteId"}, func(r *entity.PaymentRecord) string { return r.QuoteID }},
	{"tenant_id", []string{"tenant_id", "tenantId"}, func(r *entity.PaymentRecord) string { return r.TenantID }},
}

// checkMetadata rejects an event whose metadata names another quote or tenant
// than the stored record. Absent keys are not checked.
func checkMetadata(record *entity.PaymentRecord, metadata map[string]string) error {
	for _, m := range metadataKeys {
		for _, key := range m.keys {
			got, ok := metadata[key]
			if !ok || got == "" {
				continue
			}
			if want := m.value(record); got != want {
				return apperr.Validation("metadata."+m.field, "payment %s belongs to %s, event names %s", record.ReferenceID, want, got)
			}
		}
	}
	return nil
}

func (s *paymentServiceImpl) checkAmount(record *entity.PaymentRecord, expected decimal.Decimal, evt PaymentSucceeded) error {
	sameCurrency := strings.EqualFold(record.Currency, evt.Currency)
	if sameCurrency && evt.Amount.Sub(expected).Abs().LessThanOrEqual(s.policy.AmountTolerance) {
		return nil
	}
	return &apperr.AmountMismatchError{
		ReferenceID:      record.ReferenceID,
		Expected:         expected,
		Actual:           evt.Amount,
		ExpectedCurrency: record.Currency,
		ActualCurrency:   evt.Currency,
	}
}

func (s *paymentServiceImpl) markPaid(record *entity.PaymentRecord, jobID string, amount decimal.Decimal) {
	now := s.Now()
	record.Status = entity.PaymentPaid
	record.PaidAmount = amount
	record.PaidAt = timeRef(now)
	record.JobID = jobID
	record.UpdatedAt = now
}

// report logs and counts a failed reconciliation
func (s *paymentServiceImpl) report(kind entity.PaymentKind, referenceID string, err error) {
	outcome := OutcomeError
	switch {
	case errors.Is(err, apperr.ErrAmountMismatch):
		outcome = OutcomeAmountMismatch
	case errors.Is(err, apperr.ErrPaymentRecordNotFound):
		outcome = OutcomeNotFound
	}
	s.Metrics.ReconcileOutcome(kind, outcome)
	s.Logger.Error("Payment reconciliation rejected", "error", err, "reference_id", referenceID, "kind", kind, "outcome", outcome)
}
