package entity

// QuoteStatus is the lifecycle status of a quote.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteViewed   QuoteStatus = "viewed"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteDeclined QuoteStatus = "declined"
	QuoteArchived QuoteStatus = "archived"
)

// JobStatus is the lifecycle status of a job.
type JobStatus string

const (
	JobAccepted    JobStatus = "accepted"
	JobDepositPaid JobStatus = "deposit_paid"
	JobScheduled   JobStatus = "scheduled"
	JobInProgress  JobStatus = "in_progress"
	JobOnHold      JobStatus = "on_hold"
	JobPaused      JobStatus = "paused"
	JobCompleted   JobStatus = "completed"
	JobClosed      JobStatus = "closed"
	JobCanceled    JobStatus = "canceled"
)

// AreaProgressStatus tracks crew progress on one area of a job.
type AreaProgressStatus string

const (
	AreaNotStarted AreaProgressStatus = "not_started"
	AreaPrepped    AreaProgressStatus = "prepped"
	AreaInProgress AreaProgressStatus = "in_progress"
	AreaTouchUps   AreaProgressStatus = "touch_ups"
	AreaCompleted  AreaProgressStatus = "completed"
)

var validAreaProgress = map[AreaProgressStatus]bool{
	AreaNotStarted: true,
	AreaPrepped:    true,
	AreaInProgress: true,
	AreaTouchUps:   true,
	AreaCompleted:  true,
}

// IsValid reports whether s is a known area progress status.
func (s AreaProgressStatus) IsValid() bool {
	return validAreaProgress[s]
}

// FinalPaymentStatus is set when a job completes.
type FinalPaymentStatus string

const (
	FinalPaymentNone        FinalPaymentStatus = ""
	FinalPaymentPending     FinalPaymentStatus = "pending"
	FinalPaymentPaid        FinalPaymentStatus = "paid"
	FinalPaymentNotRequired FinalPaymentStatus = "not_required"
)

// PaymentKind distinguishes the two payment events of a job.
type PaymentKind string

const (
	PaymentDeposit PaymentKind = "deposit"
	PaymentFinal   PaymentKind = "final"
)

// PaymentStatus is the status of a payment record.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ProductStrategy selects how many price points a quote presents.
type ProductStrategy string

const (
	StrategyGBB    ProductStrategy = "gbb"
	StrategySingle ProductStrategy = "single"
)

// IsValid reports whether s is a known strategy.
func (s ProductStrategy) IsValid() bool {
	return s == StrategyGBB || s == StrategySingle
}

// Tier names a price point.
type Tier string

const (
	TierGood     Tier = "good"
	TierBetter   Tier = "better"
	TierBest     Tier = "best"
	TierStandard Tier = "standard"
)

// GBBTiers lists the good/better/best tiers in presentation order.
var GBBTiers = []Tier{TierGood, TierBetter, TierBest}

// Tiers returns the tiers a strategy is priced at.
func (s ProductStrategy) Tiers() []Tier {
	if s == StrategyGBB {
		return GBBTiers
	}
	return []Tier{TierStandard}
}

// MeasurementUnit is the unit a surface quantity is measured in.
type MeasurementUnit string

const (
	UnitSqft     MeasurementUnit = "sqft"
	UnitLinearFt MeasurementUnit = "linear_ft"
	UnitCount    MeasurementUnit = "unit"
	UnitHours    MeasurementUnit = "hours"
)

// IsValid reports whether u is a known unit.
func (u MeasurementUnit) IsValid() bool {
	switch u {
	case UnitSqft, UnitLinearFt, UnitCount, UnitHours:
		return true
	}
	return false
}

// EntityType names the audited entity kinds.
type EntityType string

const (
	EntityQuote   EntityType = "quote"
	EntityJob     EntityType = "job"
	EntityPayment EntityType = "payment"
)

// Audit actions
const (
	ActionQuoteCreated         = "quote_created"
	ActionQuoteSent            = "quote_sent"
	ActionQuoteViewed          = "quote_viewed"
	ActionQuoteAccepted        = "quote_accepted"
	ActionQuoteDeclined        = "quote_declined"
	ActionQuoteArchived        = "quote_archived"
	ActionQuoteRevised         = "quote_revised"
	ActionQuoteDeactivated     = "quote_deactivated"
	ActionJobCreated           = "job_created"
	ActionDepositVerified      = "deposit_verified"
	ActionJobScheduled         = "job_scheduled"
	ActionJobRescheduled       = "job_rescheduled"
	ActionJobStarted           = "job_started"
	ActionAreaProgressUpdated  = "area_progress_updated"
	ActionSelectionsSubmitted  = "selections_submitted"
	ActionJobCompleted         = "job_completed"
	ActionFinalPaymentReceived = "final_payment_received"
	ActionJobClosed            = "job_closed"
	ActionJobOnHold            = "job_on_hold"
	ActionJobPaused            = "job_paused"
	ActionJobResumed           = "job_resumed"
	ActionJobCanceled          = "job_canceled"
	ActionPaymentOpened        = "payment_opened"
	ActionPaymentFailed        = "payment_failed"
)
