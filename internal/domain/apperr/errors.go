// Package apperr holds the typed errors returned by quote, job and payment operations.
// Each error type matches its sentinel through errors.Is so callers can branch on the
// kind without inspecting fields.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrSchemeCoverage         = errors.New("pricing scheme does not cover category")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrInvalidJobState        = errors.New("invalid job state")
	ErrPaymentRecordNotFound  = errors.New("payment record not found")
	ErrAmountMismatch         = errors.New("payment amount mismatch")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrNotFound               = errors.New("not found")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation builds a ValidationError.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SchemeCoverageError is raised when a pricing scheme has no rate for a surface category.
type SchemeCoverageError struct {
	Scheme   string
	Category string
}

func (e *SchemeCoverageError) Error() string {
	return fmt.Sprintf("pricing scheme %s has no rate for category %q", e.Scheme, e.Category)
}

func (e *SchemeCoverageError) Is(target error) bool { return target == ErrSchemeCoverage }

// InvalidTransitionError is raised when a status change is not in the transition table.
type InvalidTransitionError struct {
	Entity  string
	From    string
	To      string
	Trigger string
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s: cannot %s from %s", e.Entity, e.Trigger, e.From)
	}
	return fmt.Sprintf("%s: cannot transition from %s to %s", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// InvalidJobStateError is raised when a job-scoped mutation is attempted in the wrong status.
type InvalidJobStateError struct {
	JobID     string
	Status    string
	Operation string
}

func (e *InvalidJobStateError) Error() string {
	return fmt.Sprintf("job %s: %s not allowed while %s", e.JobID, e.Operation, e.Status)
}

func (e *InvalidJobStateError) Is(target error) bool { return target == ErrInvalidJobState }

// PaymentRecordNotFoundError is raised when a gateway event references an unknown payment.
type PaymentRecordNotFoundError struct {
	ReferenceID string
}

func (e *PaymentRecordNotFoundError) Error() string {
	return fmt.Sprintf("no payment record for reference %q", e.ReferenceID)
}

func (e *PaymentRecordNotFoundError) Is(target error) bool { return target == ErrPaymentRecordNotFound }

// AmountMismatchError is raised when a gateway event disagrees with the expected amount.
type AmountMismatchError struct {
	ReferenceID      string
	Expected         decimal.Decimal
	Actual           decimal.Decimal
	ExpectedCurrency string
	ActualCurrency   string
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment %s: expected %s %s, got %s %s",
		e.ReferenceID,
		e.Expected.StringFixed(2), e.ExpectedCurrency,
		e.Actual.StringFixed(2), e.ActualCurrency)
}

func (e *AmountMismatchError) Is(target error) bool { return target == ErrAmountMismatch }

// ConcurrentModificationError signals a stale write. Callers may retry the whole operation.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// NotFoundError is raised when a tenant-scoped lookup misses.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsRetryable reports whether the operation that produced err can be retried as a whole.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
