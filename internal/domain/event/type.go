package event

// Type identifies the type of domain event
type Type string

const (
	TypeQuoteSent            Type = "quote.sent"
	TypeQuoteAccepted        Type = "quote.accepted"
	TypeDepositVerified      Type = "job.deposit_verified"
	TypeJobScheduled         Type = "job.scheduled"
	TypeJobCompleted         Type = "job.completed"
	TypeFinalPaymentReceived Type = "job.final_payment_received"
	TypePaymentFailed        Type = "payment.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeQuoteSent,
		TypeQuoteAccepted,
		TypeDepositVerified,
		TypeJobScheduled,
		TypeJobCompleted,
		TypeFinalPaymentReceived,
		TypePaymentFailed:
		return true
	default:
		return false
	}
}
