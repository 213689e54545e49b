package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is an expected gateway payment keyed by its gateway reference.
type PaymentRecord struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	ReferenceID    string          `json:"reference_id"`
	Kind           PaymentKind     `json:"kind"`
	QuoteID        string          `json:"quote_id"`
	JobID          string          `json:"job_id,omitempty"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	Currency       string          `json:"currency"`
	Status         PaymentStatus   `json:"status"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
