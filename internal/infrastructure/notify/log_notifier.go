// Package notify delivers lifecycle notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/brushline/paintquote/internal/domain/event"
	"go.uber.org/zap"
)

// LogNotifier writes each notification as a structured log line. It stands in
// for an email or SMS provider and never fails.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier logging under the "notify" name
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify logs the rendered message for evt
func (n *LogNotifier) Notify(ctx context.Context, evt *event.Event) error {
	n.logger.Info(Subject(evt),
		zap.String("event_id", evt.ID),
		zap.String("event_type", string(evt.Type)),
		zap.String("tenant_id", evt.TenantID),
		zap.String("entity_id", evt.EntityID),
		zap.Any("payload", evt.Payload))
	return nil
}

// Subject renders the one-line message a recipient would see
func Subject(evt *event.Event) string {
	number := evt.GetPayloadString("quote_number")
	switch evt.Type {
	case event.TypeQuoteSent:
		return fmt.Sprintf("Your painting quote %s is ready", number)
	case event.TypeDepositVerified:
		return fmt.Sprintf("Deposit of %s received for %s", evt.GetPayloadString("amount"), number)
	case event.TypeJobScheduled:
		if evt.GetPayloadBool("rescheduled") {
			return fmt.Sprintf("Job %s rescheduled to %s", number, evt.GetPayloadString("start_date"))
		}
		return fmt.Sprintf("Job %s scheduled for %s", number, evt.GetPayloadString("start_date"))
	case event.TypeJobCompleted:
		if evt.GetPayloadBool("closed") {
			return fmt.Sprintf("Job %s is complete and fully paid", number)
		}
		return fmt.Sprintf("Job %s is complete, balance due %s", number, evt.GetPayloadString("balance_remaining"))
	case event.TypeFinalPaymentReceived:
		return fmt.Sprintf("Final payment of %s received for %s", evt.GetPayloadString("amount"), number)
	default:
		return string(evt.Type)
	}
}
