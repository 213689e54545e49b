package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/brushline/paintquote/internal/domain/pricing"
	"github.com/brushline/paintquote/internal/domain/workflow"
	"github.com/brushline/paintquote/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxNumberAttempts bounds the retries of quote-number allocation
const maxNumberAttempts = 5

// CreateQuoteInput carries the data for a new draft quote
type CreateQuoteInput struct {
	TenantID        string
	ActorID         string
	CustomerName    string
	CustomerEmail   string
	PropertyAddress string
	ZipCode         string
	Scheme          entity.PricingScheme
	Strategy        entity.ProductStrategy
	Rates           entity.Rates
	Areas           []entity.Area
	Selections      []entity.ProductSelection
	// ReportedTotals are tier totals computed by the client, checked against the server's
	ReportedTotals map[entity.Tier]decimal.Decimal
}

// DraftChanges replaces the priced content of a draft. Nil fields are left unchanged.
type DraftChanges struct {
	Scheme         entity.PricingScheme
	Strategy       entity.ProductStrategy
	Rates          *entity.Rates
	Areas          []entity.Area
	Selections     []entity.ProductSelection
	ReportedTotals map[entity.Tier]decimal.Decimal
}

// QuoteService manages quotes from draft to acceptance
type QuoteService interface {
	CreateQuote(ctx context.Context, in CreateQuoteInput) (*entity.Quote, error)
	GetQuote(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error)
	GetQuoteByNumber(ctx context.Context, tenantID, quoteNumber string) (*entity.Quote, error)
	ListQuotes(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error)
	UpdateDraft(ctx context.Context, tenantID, quoteID, actorID string, changes DraftChanges) (*entity.Quote, error)
	SendQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error)
	RecordCustomerView(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error)
	AcceptQuote(ctx context.Context, tenantID, quoteID string, tier entity.Tier, actorID string) (*entity.Quote, *entity.Job, error)
	DeclineQuote(ctx context.Context, tenantID, quoteID, actorID, reason string) (*entity.Quote, error)
	ArchiveQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error)
	DeactivateQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error)
	ReviseQuote(ctx context.Context, tenantID, quoteID, actorID string, changes DraftChanges) (*entity.Quote, error)
}

type quoteServiceImpl struct {
	Deps
	policy Policy
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(deps Deps, policy Policy) QuoteService {
	return &quoteServiceImpl{
		Deps:   deps.withDefaults(),
		policy: policy,
	}
}

// CreateQuote stores a new draft under the next Q-{year}-{sequence} number.
// A draft may be incomplete; totals are filled when its inputs already price.
func (s *quoteServiceImpl) CreateQuote(ctx context.Context, in CreateQuoteInput) (*entity.Quote, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, apperr.Validation("customer_name", "is required")
	}
	if in.Scheme == nil {
		return nil, apperr.Validation("scheme", "is required")
	}
	if !in.Strategy.IsValid() {
		return nil, apperr.Validation("product_strategy", "unknown strategy %q", in.Strategy)
	}
	if in.CustomerEmail != "" {
		if err := utils.ValidateEmail(in.CustomerEmail); err != nil {
			return nil, apperr.Validation("customer_email", "%v", err)
		}
	}

	now := s.Now()
	quote := &entity.Quote{
		TenantID:        in.TenantID,
		Year:            now.Year(),
		Version:         1,
		CustomerName:    utils.SanitizeString(in.CustomerName),
		CustomerEmail:   in.CustomerEmail,
		PropertyAddress: utils.SanitizeString(in.PropertyAddress),
		ZipCode:         in.ZipCode,
		Status:          entity.QuoteDraft,
		IsActive:        true,
		Scheme:          in.Scheme,
		Strategy:        in.Strategy,
		Rates:           in.Rates,
		Areas:           in.Areas,
		Selections:      in.Selections,
		CreatedBy:       in.ActorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.priceDraft(quote, in.ReportedTotals); err != nil {
		return nil, err
	}

	err := s.insertNumbered(ctx, quote, func(txCtx context.Context) error {
		return s.Audit.Record(txCtx, Change{
			TenantID:   quote.TenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     entity.ActionQuoteCreated,
			To:         string(entity.QuoteDraft),
			ActorID:    in.ActorID,
			Data:       map[string]string{"quote_number": quote.QuoteNumber},
		})
	})
	if err != nil {
		s.Logger.Error("Failed to create quote", "error", err, "tenant_id", in.TenantID)
		return nil, err
	}

	s.Logger.Info("Quote created", "quote_id", quote.ID, "quote_number", quote.QuoteNumber)
	return quote, nil
}

// insertNumbered allocates a number for quote and inserts it, retrying when a
// concurrent writer took the same sequence.
func (s *quoteServiceImpl) insertNumbered(ctx context.Context, quote *entity.Quote, after func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			seq, err := s.Quotes.NextSequence(txCtx, quote.TenantID, quote.Year)
			if err != nil {
				return err
			}
			quote.ID = uuid.NewString()
			quote.Sequence = seq
			quote.QuoteNumber = fmt.Sprintf("Q-%d-%03d", quote.Year, seq)

			if err := s.Quotes.Create(txCtx, quote); err != nil {
				return err
			}
			return after(txCtx)
		})
		if !apperr.IsRetryable(err) {
			return err
		}
		s.Logger.Info("Quote number taken, retrying", "attempt", attempt, "quote_number", quote.QuoteNumber)
	}
	return err
}

// GetQuote retrieves a quote
func (s *quoteServiceImpl) GetQuote(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error) {
	return s.Quotes.GetByID(ctx, tenantID, quoteID)
}

// GetQuoteByNumber retrieves a quote by its customer-facing number
func (s *quoteServiceImpl) GetQuoteByNumber(ctx context.Context, tenantID, quoteNumber string) (*entity.Quote, error) {
	number := strings.ToUpper(strings.TrimSpace(quoteNumber))
	if number == "" {
		return nil, apperr.Validation("quote_number", "is required")
	}
	return s.Quotes.GetByNumber(ctx, tenantID, number)
}

// ListQuotes lists a tenant's quotes
func (s *quoteServiceImpl) ListQuotes(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error) {
	return s.Quotes.List(ctx, tenantID, filter)
}

// UpdateDraft edits a draft in place. Sent quotes are immutable and must be revised instead.
func (s *quoteServiceImpl) UpdateDraft(ctx context.Context, tenantID, quoteID, actorID string, changes DraftChanges) (*entity.Quote, error) {
	var quote *entity.Quote
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if !quote.IsEditable() {
			return &apperr.InvalidTransitionError{Entity: "quote", From: string(quote.Status), Trigger: "edit"}
		}
		if err := applyDraftChanges(quote, changes); err != nil {
			return err
		}
		quote.UpdatedAt = s.Now()
		if err := s.priceDraft(quote, changes.ReportedTotals); err != nil {
			return err
		}
		return s.Quotes.Update(txCtx, quote, entity.QuoteDraft)
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// SendQuote prices the draft from scratch, reconciles every tier and marks it sent
func (s *quoteServiceImpl) SendQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	var quote *entity.Quote
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		next, err := workflow.QuoteTransitions.Fire(quote.Status, workflow.TriggerSend)
		if err != nil {
			return err
		}
		if quote.CustomerEmail == "" {
			return apperr.Validation("customer_email", "is required to send a quote")
		}
		if len(quote.Areas) == 0 {
			return apperr.Validation("areas", "at least one area is required")
		}
		if err := pricing.RequireProducts(quote.Areas, quote.Strategy, quote.Selections); err != nil {
			return err
		}

		totals, err := s.price(quote)
		if err != nil {
			return err
		}
		for _, t := range totals.Tiers {
			if err := pricing.Reconcile(t, s.policy.Epsilon); err != nil {
				return err
			}
		}

		from := quote.Status
		now := s.Now()
		quote.Totals = totals.Tiers
		quote.Status = next
		quote.SentAt = timeRef(now)
		quote.UpdatedAt = now

		if err := s.Quotes.Update(txCtx, quote, from); err != nil {
			return err
		}
		return s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     entity.ActionQuoteSent,
			From:       string(from),
			To:         string(next),
			ActorID:    actorID,
		})
	})
	if err != nil {
		s.Logger.Error("Failed to send quote", "error", err, "quote_id", quoteID)
		return nil, err
	}

	s.transitioned(entity.EntityQuote, string(entity.QuoteDraft), string(quote.Status))
	s.publish(ctx, event.NewEvent(event.TypeQuoteSent, tenantID, quote.ID, map[string]interface{}{
		"quote_number":   quote.QuoteNumber,
		"customer_email": quote.CustomerEmail,
	}))
	s.Logger.Info("Quote sent", "quote_id", quote.ID, "quote_number", quote.QuoteNumber)
	return quote, nil
}

// RecordCustomerView marks the first customer view. Later views are no-ops.
func (s *quoteServiceImpl) RecordCustomerView(ctx context.Context, tenantID, quoteID string) (*entity.Quote, error) {
	var (
		quote   *entity.Quote
		changed bool
	)
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if quote.Status != entity.QuoteSent {
			if quote.Status == entity.QuoteDraft {
				return &apperr.InvalidTransitionError{
					Entity: "quote", From: string(quote.Status), To: string(entity.QuoteViewed), Trigger: string(workflow.TriggerView),
				}
			}
			return nil
		}

		next, err := workflow.QuoteTransitions.Fire(quote.Status, workflow.TriggerView)
		if err != nil {
			return err
		}
		now := s.Now()
		quote.Status = next
		quote.ViewedAt = timeRef(now)
		quote.UpdatedAt = now
		if err := s.Quotes.Update(txCtx, quote, entity.QuoteSent); err != nil {
			return err
		}
		changed = true
		return s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     entity.ActionQuoteViewed,
			From:       string(entity.QuoteSent),
			To:         string(next),
			ActorID:    "customer",
		})
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.transitioned(entity.EntityQuote, string(entity.QuoteSent), string(entity.QuoteViewed))
	}
	return quote, nil
}

// AcceptQuote accepts one tier and creates the job in the same transaction
func (s *quoteServiceImpl) AcceptQuote(ctx context.Context, tenantID, quoteID string, tier entity.Tier, actorID string) (*entity.Quote, *entity.Job, error) {
	var (
		quote *entity.Quote
		job   *entity.Job
		from  entity.QuoteStatus
	)
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}

		next, err := workflow.QuoteTransitions.Fire(quote.Status, workflow.TriggerAccept)
		if err != nil {
			return err
		}
		if tier == "" && quote.Strategy == entity.StrategySingle {
			tier = entity.TierStandard
		}
		if _, ok := quote.TotalFor(tier); !ok {
			return apperr.Validation("tier", "quote %s has no %q tier", quote.QuoteNumber, tier)
		}

		from = quote.Status
		now := s.Now()
		quote.Status = next
		quote.AcceptedTier = tier
		quote.AcceptedAt = timeRef(now)
		quote.UpdatedAt = now
		if err := s.Quotes.Update(txCtx, quote, from); err != nil {
			return err
		}
		if err := s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     entity.ActionQuoteAccepted,
			From:       string(from),
			To:         string(next),
			ActorID:    actorID,
			Data:       map[string]string{"tier": string(tier)},
		}); err != nil {
			return err
		}

		job, err = createJobForQuote(txCtx, s.Deps, s.policy, quote, actorID)
		return err
	})
	if err != nil {
		s.Logger.Error("Failed to accept quote", "error", err, "quote_id", quoteID)
		return nil, nil, err
	}

	s.transitioned(entity.EntityQuote, string(from), string(quote.Status))
	s.transitioned(entity.EntityJob, "", string(job.Status))
	s.publish(ctx, event.NewEvent(event.TypeQuoteAccepted, tenantID, quote.ID, map[string]interface{}{
		"quote_number": quote.QuoteNumber,
		"job_id":       job.ID,
		"tier":         string(quote.AcceptedTier),
	}))
	s.Logger.Info("Quote accepted", "quote_id", quote.ID, "job_id", job.ID, "tier", quote.AcceptedTier)
	return quote, job, nil
}

// DeclineQuote records the customer's refusal
func (s *quoteServiceImpl) DeclineQuote(ctx context.Context, tenantID, quoteID, actorID, reason string) (*entity.Quote, error) {
	return s.move(ctx, tenantID, quoteID, actorID, reason, workflow.TriggerDecline, entity.ActionQuoteDeclined,
		func(q *entity.Quote) { q.DeclinedAt = timeRef(q.UpdatedAt) })
}

// ArchiveQuote archives a quote that left draft
func (s *quoteServiceImpl) ArchiveQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	return s.move(ctx, tenantID, quoteID, actorID, "", workflow.TriggerArchive, entity.ActionQuoteArchived,
		func(q *entity.Quote) { q.ArchivedAt = timeRef(q.UpdatedAt) })
}

func (s *quoteServiceImpl) move(ctx context.Context, tenantID, quoteID, actorID, reason string, trigger workflow.Trigger, action string, stamp func(*entity.Quote)) (*entity.Quote, error) {
	var (
		quote *entity.Quote
		from  entity.QuoteStatus
	)
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		next, err := workflow.QuoteTransitions.Fire(quote.Status, trigger)
		if err != nil {
			return err
		}

		from = quote.Status
		quote.Status = next
		quote.UpdatedAt = s.Now()
		stamp(quote)
		if err := s.Quotes.Update(txCtx, quote, from); err != nil {
			return err
		}
		return s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     action,
			From:       string(from),
			To:         string(next),
			ActorID:    actorID,
			Reason:     reason,
		})
	})
	if err != nil {
		s.Logger.Error("Quote transition failed", "error", err, "quote_id", quoteID, "trigger", trigger)
		return nil, err
	}

	s.transitioned(entity.EntityQuote, string(from), string(quote.Status))
	s.Logger.Info("Quote transitioned", "quote_id", quote.ID, "from", from, "to", quote.Status)
	return quote, nil
}

// DeactivateQuote hides a quote from listings without deleting it
func (s *quoteServiceImpl) DeactivateQuote(ctx context.Context, tenantID, quoteID, actorID string) (*entity.Quote, error) {
	var quote *entity.Quote
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		quote, err = s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if !quote.IsActive {
			return nil
		}
		quote.IsActive = false
		quote.UpdatedAt = s.Now()
		if err := s.Quotes.Update(txCtx, quote, quote.Status); err != nil {
			return err
		}
		return s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   quote.ID,
			Action:     entity.ActionQuoteDeactivated,
			From:       string(quote.Status),
			To:         string(quote.Status),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// ReviseQuote copies a sent or viewed quote into a new draft version and archives the original
func (s *quoteServiceImpl) ReviseQuote(ctx context.Context, tenantID, quoteID, actorID string, changes DraftChanges) (*entity.Quote, error) {
	var revision *entity.Quote
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		original, err := s.Quotes.GetByID(txCtx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if original.Status != entity.QuoteSent && original.Status != entity.QuoteViewed {
			return &apperr.InvalidTransitionError{Entity: "quote", From: string(original.Status), Trigger: "revise"}
		}

		now := s.Now()
		revision = &entity.Quote{
			TenantID:        tenantID,
			Year:            now.Year(),
			Version:         original.Version + 1,
			ParentQuoteID:   original.ID,
			CustomerName:    original.CustomerName,
			CustomerEmail:   original.CustomerEmail,
			PropertyAddress: original.PropertyAddress,
			ZipCode:         original.ZipCode,
			Status:          entity.QuoteDraft,
			IsActive:        true,
			Scheme:          original.Scheme,
			Strategy:        original.Strategy,
			Rates:           original.Rates,
			Areas:           original.Areas,
			Selections:      original.Selections,
			CreatedBy:       actorID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := applyDraftChanges(revision, changes); err != nil {
			return err
		}
		if err := s.priceDraft(revision, changes.ReportedTotals); err != nil {
			return err
		}

		err = s.insertNumbered(txCtx, revision, func(txCtx context.Context) error {
			return s.Audit.Record(txCtx, Change{
				TenantID:   tenantID,
				EntityType: entity.EntityQuote,
				EntityID:   revision.ID,
				Action:     entity.ActionQuoteRevised,
				To:         string(entity.QuoteDraft),
				ActorID:    actorID,
				Data:       map[string]string{"parent_quote_id": original.ID, "quote_number": revision.QuoteNumber},
			})
		})
		if err != nil {
			return err
		}

		from := original.Status
		original.Status = entity.QuoteArchived
		original.UpdatedAt = now
		original.ArchivedAt = timeRef(now)
		if err := s.Quotes.Update(txCtx, original, from); err != nil {
			return err
		}
		return s.Audit.Record(txCtx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityQuote,
			EntityID:   original.ID,
			Action:     entity.ActionQuoteArchived,
			From:       string(from),
			To:         string(entity.QuoteArchived),
			ActorID:    actorID,
			Reason:     "revised as " + revision.QuoteNumber,
		})
	})
	if err != nil {
		s.Logger.Error("Failed to revise quote", "error", err, "quote_id", quoteID)
		return nil, err
	}

	s.Logger.Info("Quote revised", "quote_id", quoteID, "revision_id", revision.ID, "version", revision.Version)
	return revision, nil
}

func (s *quoteServiceImpl) price(q *entity.Quote) (pricing.QuoteTotals, error) {
	return pricing.Aggregate(pricing.TenantPricing{
		Scheme:         q.Scheme,
		Rates:          q.Rates,
		AllowZeroPrice: s.policy.AllowZeroPrice,
	}, q.Areas, q.Strategy, q.Selections)
}

// priceDraft refreshes draft totals and clears them when the draft does not price yet.
// When the client reported totals, the draft must price and every reported tier
// must match the recomputed total within epsilon.
func (s *quoteServiceImpl) priceDraft(q *entity.Quote, reported map[entity.Tier]decimal.Decimal) error {
	totals, err := s.price(q)
	if err != nil {
		q.Totals = nil
		if len(reported) > 0 {
			return err
		}
		return nil
	}

	for tier, claimed := range reported {
		computed, ok := totals.Tier(tier)
		if !ok {
			return apperr.Validation(fmt.Sprintf("reported_totals.%s", tier), "tier is not offered by a %s quote", q.Strategy)
		}
		if err := pricing.VerifyClaim(tier, claimed, computed, s.policy.Epsilon); err != nil {
			return err
		}
	}
	q.Totals = totals.Tiers
	return nil
}

func applyDraftChanges(q *entity.Quote, c DraftChanges) error {
	if c.Scheme != nil {
		q.Scheme = c.Scheme
	}
	if c.Strategy != "" {
		if !c.Strategy.IsValid() {
			return apperr.Validation("product_strategy", "unknown strategy %q", c.Strategy)
		}
		q.Strategy = c.Strategy
	}
	if c.Rates != nil {
		q.Rates = *c.Rates
	}
	if c.Areas != nil {
		q.Areas = c.Areas
	}
	if c.Selections != nil {
		q.Selections = c.Selections
	}
	return nil
}

// createJobForQuote inserts the single job of an accepted quote
func createJobForQuote(ctx context.Context, d Deps, policy Policy, q *entity.Quote, actorID string) (*entity.Job, error) {
	total, ok := q.TotalFor(q.AcceptedTier)
	if !ok {
		return nil, apperr.Validation("tier", "quote %s has no %q tier", q.QuoteNumber, q.AcceptedTier)
	}

	progress := make(map[string]entity.AreaProgressStatus, len(q.Areas))
	for _, a := range q.Areas {
		progress[a.ID] = entity.AreaNotStarted
	}

	now := d.Now()
	job := &entity.Job{
		ID:               uuid.NewString(),
		TenantID:         q.TenantID,
		QuoteID:          q.ID,
		QuoteNumber:      q.QuoteNumber,
		Tier:             q.AcceptedTier,
		Status:           entity.JobAccepted,
		Total:            total.Total,
		Currency:         policy.Currency,
		DepositAmount:    depositFor(total.Total, policy.DepositPercent),
		BalanceRemaining: total.Total,
		AreaProgress:     progress,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := d.Jobs.Create(ctx, job); err != nil {
		if errors.Is(err, apperr.ErrConcurrentModification) {
			d.Logger.Info("Job already exists for quote", "quote_id", q.ID)
		}
		return nil, err
	}
	if err := d.Audit.Record(ctx, Change{
		TenantID:   q.TenantID,
		EntityType: entity.EntityJob,
		EntityID:   job.ID,
		Action:     entity.ActionJobCreated,
		To:         string(entity.JobAccepted),
		ActorID:    actorID,
		Data: map[string]string{
			"quote_id": q.ID,
			"total":    job.Total.StringFixed(2),
			"deposit":  job.DepositAmount.StringFixed(2),
		},
	}); err != nil {
		return nil, err
	}
	return job, nil
}

func depositFor(total, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}
