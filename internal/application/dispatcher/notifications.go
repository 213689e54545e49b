package dispatcher

import (
	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/event"
)

// NotificationTypes are the events forwarded to the notification service
var NotificationTypes = []event.Type{
	event.TypeQuoteSent,
	event.TypeDepositVerified,
	event.TypeJobScheduled,
	event.TypeJobCompleted,
	event.TypeFinalPaymentReceived,
}

// RegisterNotifier forwards notification events to notifier
func RegisterNotifier(d Dispatcher, notifier port.Notifier) {
	handler := notifierHandler(notifier)
	for _, t := range NotificationTypes {
		d.Subscribe(t, "notifier", handler)
	}
}
