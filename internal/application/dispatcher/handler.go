package dispatcher

import (
	"context"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/event"
)

// Handler reacts to a committed quote, job or payment event. Its error is
// reported but never rolls back the transition that produced the event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes one subscription. ListHandlers leaves Handler nil.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// notifierHandler forwards events to a customer notification channel
func notifierHandler(n port.Notifier) Handler {
	return n.Notify
}
