package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "validation",
			err:      Validation("areas[0].surfaces[1].quantity", "must not be negative"),
			sentinel: ErrValidation,
			message:  "validation failed on areas[0].surfaces[1].quantity: must not be negative",
		},
		{
			name:     "scheme coverage",
			err:      &SchemeCoverageError{Scheme: "rate_based_sqft", Category: "trim"},
			sentinel: ErrSchemeCoverage,
			message:  `pricing scheme rate_based_sqft has no rate for category "trim"`,
		},
		{
			name:     "transition with target",
			err:      &InvalidTransitionError{Entity: "quote", From: "declined", To: "accepted"},
			sentinel: ErrInvalidTransition,
			message:  "quote: cannot transition from declined to accepted",
		},
		{
			name:     "transition by trigger",
			err:      &InvalidTransitionError{Entity: "job", From: "closed", Trigger: "resume"},
			sentinel: ErrInvalidTransition,
			message:  "job: cannot resume from closed",
		},
		{
			name:     "job state",
			err:      &InvalidJobStateError{JobID: "j1", Status: "completed", Operation: "update area progress"},
			sentinel: ErrInvalidJobState,
			message:  "job j1: update area progress not allowed while completed",
		},
		{
			name:     "payment not found",
			err:      &PaymentRecordNotFoundError{ReferenceID: "cs_1"},
			sentinel: ErrPaymentRecordNotFound,
			message:  `no payment record for reference "cs_1"`,
		},
		{
			name: "amount mismatch",
			err: &AmountMismatchError{
				ReferenceID: "cs_1", Expected: decimal.NewFromInt(1500), Actual: decimal.NewFromInt(150),
				ExpectedCurrency: "usd", ActualCurrency: "usd",
			},
			sentinel: ErrAmountMismatch,
			message:  "payment cs_1: expected 1500.00 usd, got 150.00 usd",
		},
		{
			name:     "concurrent modification",
			err:      &ConcurrentModificationError{Entity: "job", ID: "j1"},
			sentinel: ErrConcurrentModification,
			message:  "job j1 was modified concurrently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.message)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
		})
	}
}

func TestErrorAs(t *testing.T) {
	err := fmt.Errorf("reconcile: %w", &PaymentRecordNotFoundError{ReferenceID: "cs_9"})

	var target *PaymentRecordNotFoundError
	if assert.True(t, errors.As(err, &target)) {
		assert.Equal(t, "cs_9", target.ReferenceID)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&ConcurrentModificationError{Entity: "quote", ID: "q"}))
	assert.False(t, IsRetryable(&AmountMismatchError{}))
	assert.False(t, IsRetryable(errors.New("boom")))
}
