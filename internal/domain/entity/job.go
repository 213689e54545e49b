package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Job is the work derived from an accepted quote.
type Job struct {
	ID                 string                        `json:"id"`
	TenantID           string                        `json:"tenant_id"`
	QuoteID            string                        `json:"quote_id"`
	QuoteNumber        string                        `json:"quote_number"`
	Tier               Tier                          `json:"tier"`
	Status             JobStatus                     `json:"status"`
	ResumeStatus       JobStatus                     `json:"resume_status,omitempty"`
	Total              decimal.Decimal               `json:"total"`
	Currency           string                        `json:"currency"`
	DepositAmount      decimal.Decimal               `json:"deposit_amount"`
	DepositPaid        bool                          `json:"deposit_paid"`
	DepositPaidAt      *time.Time                    `json:"deposit_paid_at,omitempty"`
	BalanceRemaining   decimal.Decimal               `json:"balance_remaining"`
	FinalPaymentStatus FinalPaymentStatus            `json:"final_payment_status,omitempty"`
	PortalOpen         bool                          `json:"portal_open"`
	ScheduledStartDate *time.Time                    `json:"scheduled_start_date,omitempty"`
	ScheduledEndDate   *time.Time                    `json:"scheduled_end_date,omitempty"`
	Crew               []string                      `json:"crew,omitempty"`
	StartedAt          *time.Time                    `json:"started_at,omitempty"`
	CompletedAt        *time.Time                    `json:"completed_at,omitempty"`
	ClosedAt           *time.Time                    `json:"closed_at,omitempty"`
	CompletionNotes    string                        `json:"completion_notes,omitempty"`
	AreaProgress       map[string]AreaProgressStatus `json:"area_progress"`
	Selections         []CustomerSelection           `json:"selections,omitempty"`
	Version            int64                         `json:"version"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// CustomerSelection is a homeowner choice submitted through the portal.
type CustomerSelection struct {
	AreaID    string `json:"area_id"`
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Sheen     string `json:"sheen"`
	Notes     string `json:"notes,omitempty"`
}

// AcceptsProgress reports whether area progress may change in the current status.
func (j *Job) AcceptsProgress() bool {
	return j.Status == JobScheduled || j.Status == JobInProgress
}

// AcceptsSelections reports whether the portal may take customer selections.
func (j *Job) AcceptsSelections() bool {
	return j.PortalOpen && (j.Status == JobDepositPaid || j.Status == JobScheduled)
}
