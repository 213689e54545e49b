package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func livingRoomInput() CreateQuoteInput {
	return CreateQuoteInput{
		TenantID:      "tenant-1",
		ActorID:       "estimator-1",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		ZipCode:       "78701",
		Scheme: entity.RateBasedSqftScheme{
			LaborRates: map[string]decimal.Decimal{"walls": dec("5")},
			Material:   entity.MaterialDefaults{Coverage: dec("350"), CostPerGallon: dec("40")},
		},
		Strategy: entity.StrategySingle,
		Areas: []entity.Area{{
			ID:   "living",
			Name: "Living Room",
			Surfaces: []entity.Surface{
				{ID: "walls", Category: "walls", Unit: entity.UnitSqft, Quantity: dec("400")},
			},
		}},
	}
}

func gbbInput() CreateQuoteInput {
	in := livingRoomInput()
	in.Strategy = entity.StrategyGBB
	in.Selections = []entity.ProductSelection{{
		AreaID:    "living",
		SurfaceID: "walls",
		Products: map[entity.Tier]entity.Product{
			entity.TierGood:   {ID: "good", PricePerGallon: dec("30"), Coverage: dec("350")},
			entity.TierBetter: {ID: "better", PricePerGallon: dec("45"), Coverage: dec("350")},
			entity.TierBest:   {ID: "best", PricePerGallon: dec("70"), Coverage: dec("400")},
		},
	}}
	return in
}

func TestCreateQuote_NumbersPerTenantAndYear(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	first, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)
	second, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	assert.Equal(t, "Q-2026-001", first.QuoteNumber)
	assert.Equal(t, "Q-2026-002", second.QuoteNumber)
	assert.Equal(t, entity.QuoteDraft, first.Status)
	assert.True(t, first.IsActive)

	total, ok := first.TotalFor(entity.TierStandard)
	require.True(t, ok)
	assert.Equal(t, "2080.00", total.Total.StringFixed(2))
	assert.Equal(t, []string{entity.ActionQuoteCreated, entity.ActionQuoteCreated}, f.audit.actions())
}

func TestCreateQuote_RetriesTakenNumber(t *testing.T) {
	f := newFixture()
	attempts := 0
	f.quotes.createFunc = func(ctx context.Context, q *entity.Quote) error {
		attempts++
		if attempts == 1 {
			return &apperr.ConcurrentModificationError{Entity: "quote", ID: q.QuoteNumber}
		}
		return nil
	}

	q, err := f.quoteService().CreateQuote(context.Background(), livingRoomInput())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "Q-2026-001", q.QuoteNumber)
}

func TestCreateQuote_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*CreateQuoteInput)
		field string
	}{
		{"missing customer", func(in *CreateQuoteInput) { in.CustomerName = " " }, "customer_name"},
		{"missing scheme", func(in *CreateQuoteInput) { in.Scheme = nil }, "scheme"},
		{"unknown strategy", func(in *CreateQuoteInput) { in.Strategy = "premium" }, "product_strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			in := livingRoomInput()
			tt.edit(&in)

			_, err := f.quoteService().CreateQuote(context.Background(), in)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSendQuote(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, gbbInput())
	require.NoError(t, err)

	sent, err := svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Len(t, sent.Totals, 3)

	best, ok := sent.TotalFor(entity.TierBest)
	require.True(t, ok)
	// 400 sqft at 400 coverage is one gallon of the $70 product.
	assert.Equal(t, "2070.00", best.Total.StringFixed(2))

	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Contains(t, f.metrics.transitions, "quote:draft->sent")
}

func TestSendQuote_RejectsIncompleteDraft(t *testing.T) {
	tests := []struct {
		name string
		edit func(*CreateQuoteInput)
		want error
	}{
		{"no email", func(in *CreateQuoteInput) { in.CustomerEmail = "" }, apperr.ErrValidation},
		{"no areas", func(in *CreateQuoteInput) { in.Areas = nil }, apperr.ErrValidation},
		{"gbb missing tier", func(in *CreateQuoteInput) {
			delete(in.Selections[0].Products, entity.TierBest)
		}, apperr.ErrValidation},
		{"uncovered category", func(in *CreateQuoteInput) {
			in.Areas[0].Surfaces[0].Category = "ceiling"
		}, apperr.ErrSchemeCoverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.quoteService()
			in := gbbInput()
			tt.edit(&in)

			q, err := svc.CreateQuote(context.Background(), in)
			require.NoError(t, err)

			_, err = svc.SendQuote(context.Background(), "tenant-1", q.ID, "estimator-1")
			assert.ErrorIs(t, err, tt.want)

			stored, err := f.quotes.GetByID(context.Background(), "tenant-1", q.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.QuoteDraft, stored.Status)
		})
	}
}

func TestSendQuote_GBBNeedsEverySurfaceSelected(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*CreateQuoteInput)
		field string
	}{
		{"no selections", func(in *CreateQuoteInput) { in.Selections = nil }, "areas[0].surfaces[0]"},
		{"second surface unselected", func(in *CreateQuoteInput) {
			in.Areas[0].Surfaces = append(in.Areas[0].Surfaces,
				entity.Surface{ID: "accent", Category: "walls", Unit: entity.UnitSqft, Quantity: dec("80")})
		}, "areas[0].surfaces[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.quoteService()
			in := gbbInput()
			tt.edit(&in)

			q, err := svc.CreateQuote(context.Background(), in)
			require.NoError(t, err)

			_, err = svc.SendQuote(context.Background(), "tenant-1", q.ID, "estimator-1")
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			stored, err := f.quotes.GetByID(context.Background(), "tenant-1", q.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.QuoteDraft, stored.Status)
			assert.Nil(t, stored.SentAt)
		})
	}
}

func TestRecordCustomerView_FirstViewOnly(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	_, err = svc.RecordCustomerView(ctx, "tenant-1", q.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	viewed, err := svc.RecordCustomerView(ctx, "tenant-1", q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteViewed, viewed.Status)
	firstView := *viewed.ViewedAt

	again, err := svc.RecordCustomerView(ctx, "tenant-1", q.ID)
	require.NoError(t, err)
	assert.Equal(t, firstView, *again.ViewedAt)

	count := 0
	for _, a := range f.audit.actions() {
		if a == entity.ActionQuoteViewed {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAcceptQuote_CreatesJob(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)
	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	accepted, job, err := svc.AcceptQuote(ctx, "tenant-1", q.ID, "", "customer")
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteAccepted, accepted.Status)
	assert.Equal(t, entity.TierStandard, accepted.AcceptedTier)

	assert.Equal(t, entity.JobAccepted, job.Status)
	assert.Equal(t, "2080.00", job.Total.StringFixed(2))
	assert.Equal(t, "624.00", job.DepositAmount.StringFixed(2))
	assert.False(t, job.DepositPaid)
	assert.Equal(t, entity.AreaNotStarted, job.AreaProgress["living"])
	assert.Equal(t, 1, f.jobs.count())

	_, _, err = svc.AcceptQuote(ctx, "tenant-1", q.ID, "", "customer")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 1, f.jobs.count())
}

func TestAcceptQuote_UnknownTier(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, gbbInput())
	require.NoError(t, err)
	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	_, _, err = svc.AcceptQuote(ctx, "tenant-1", q.ID, entity.TierStandard, "customer")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, job, err := svc.AcceptQuote(ctx, "tenant-1", q.ID, entity.TierBetter, "customer")
	require.NoError(t, err)
	assert.Equal(t, entity.TierBetter, job.Tier)
}

func TestQuoteTransitions_Rejected(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	_, err = svc.DeclineQuote(ctx, "tenant-1", q.ID, "customer", "too expensive")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = svc.ArchiveQuote(ctx, "tenant-1", q.ID, "owner")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	declined, err := svc.DeclineQuote(ctx, "tenant-1", q.ID, "customer", "too expensive")
	require.NoError(t, err)
	require.NotNil(t, declined.DeclinedAt)

	_, _, err = svc.AcceptQuote(ctx, "tenant-1", q.ID, "", "customer")
	var ite *apperr.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, "declined", ite.From)

	archived, err := svc.ArchiveQuote(ctx, "tenant-1", q.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteArchived, archived.Status)
}

func TestUpdateDraft_OnlyWhileDraft(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	areas := livingRoomInput().Areas
	areas[0].Surfaces[0].Quantity = dec("700")
	updated, err := svc.UpdateDraft(ctx, "tenant-1", q.ID, "estimator-1", DraftChanges{Areas: areas})
	require.NoError(t, err)
	total, _ := updated.TotalFor(entity.TierStandard)
	assert.Equal(t, "3580.00", total.Total.StringFixed(2))

	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	_, err = svc.UpdateDraft(ctx, "tenant-1", q.ID, "estimator-1", DraftChanges{Areas: areas})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestReviseQuote(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)
	_, err = svc.SendQuote(ctx, "tenant-1", q.ID, "estimator-1")
	require.NoError(t, err)

	rates := entity.Rates{TaxPercent: dec("8.25")}
	revision, err := svc.ReviseQuote(ctx, "tenant-1", q.ID, "estimator-1", DraftChanges{Rates: &rates})
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteDraft, revision.Status)
	assert.Equal(t, 2, revision.Version)
	assert.Equal(t, q.ID, revision.ParentQuoteID)
	assert.Equal(t, "Q-2026-002", revision.QuoteNumber)

	original, err := f.quotes.GetByID(ctx, "tenant-1", q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteArchived, original.Status)

	_, err = svc.ReviseQuote(ctx, "tenant-1", revision.ID, "estimator-1", DraftChanges{})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestDeactivateQuote(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	out, err := svc.DeactivateQuote(ctx, "tenant-1", q.ID, "owner")
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	assert.Equal(t, entity.QuoteDraft, out.Status)

	_, err = svc.DeactivateQuote(ctx, "tenant-1", q.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ActionQuoteCreated, entity.ActionQuoteDeactivated}, f.audit.actions())
}

func TestGetQuote_OtherTenant(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()

	q, err := svc.CreateQuote(context.Background(), livingRoomInput())
	require.NoError(t, err)

	_, err = svc.GetQuote(context.Background(), "tenant-2", q.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateQuote_ReportedTotals(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(*CreateQuoteInput)
		reported map[entity.Tier]decimal.Decimal
		field    string
		want     error
	}{
		{name: "matches", reported: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2080.00")}},
		{name: "within a cent", reported: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2080.01")}},
		{
			name:     "drifted",
			reported: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2000.00")},
			field:    "totals.standard.total",
			want:     apperr.ErrValidation,
		},
		{
			name:     "tier not offered",
			reported: map[entity.Tier]decimal.Decimal{entity.TierGood: dec("2080.00")},
			field:    "reported_totals.good",
			want:     apperr.ErrValidation,
		},
		{
			name:     "draft does not price",
			edit:     func(in *CreateQuoteInput) { in.Areas[0].Surfaces[0].Category = "ceiling" },
			reported: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2080.00")},
			want:     apperr.ErrSchemeCoverage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			in := livingRoomInput()
			if tt.edit != nil {
				tt.edit(&in)
			}
			in.ReportedTotals = tt.reported

			q, err := f.quoteService().CreateQuote(context.Background(), in)
			if tt.want == nil {
				require.NoError(t, err)
				require.Len(t, q.Totals, 1)
				assert.Equal(t, "2080.00", q.Totals[0].Total.StringFixed(2))
				return
			}
			assert.ErrorIs(t, err, tt.want)
			if tt.field != "" {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
			}
			assert.Empty(t, f.audit.actions())
		})
	}
}

func TestUpdateDraft_RejectsDriftedReport(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	rates := entity.Rates{TaxPercent: dec("10")}
	_, err = svc.UpdateDraft(ctx, "tenant-1", q.ID, "estimator-1", DraftChanges{
		Rates:          &rates,
		ReportedTotals: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2080.00")},
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "totals.standard.total", verr.Field)

	updated, err := svc.UpdateDraft(ctx, "tenant-1", q.ID, "estimator-1", DraftChanges{
		Rates:          &rates,
		ReportedTotals: map[entity.Tier]decimal.Decimal{entity.TierStandard: dec("2288.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, "2288.00", updated.Totals[0].Total.StringFixed(2))
}

func TestGetQuoteByNumber(t *testing.T) {
	f := newFixture()
	svc := f.quoteService()
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, livingRoomInput())
	require.NoError(t, err)

	got, err := svc.GetQuoteByNumber(ctx, "tenant-1", " "+strings.ToLower(q.QuoteNumber))
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)

	_, err = svc.GetQuoteByNumber(ctx, "tenant-2", q.QuoteNumber)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.GetQuoteByNumber(ctx, "tenant-1", "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
