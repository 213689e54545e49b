package workflow

import "github.com/brushline/paintquote/internal/domain/entity"

// QuoteTransitions is the quote status table.
var QuoteTransitions = newQuoteTable()

func newQuoteTable() *Table[entity.QuoteStatus] {
	b := NewBuilder("quote",
		entity.QuoteDraft,
		entity.QuoteSent,
		entity.QuoteViewed,
		entity.QuoteAccepted,
		entity.QuoteDeclined,
		entity.QuoteArchived,
	)

	b.Configure(entity.QuoteDraft).
		Permit(TriggerSend, entity.QuoteSent)

	b.Configure(entity.QuoteSent).
		Permit(TriggerView, entity.QuoteViewed).
		Permit(TriggerAccept, entity.QuoteAccepted).
		Permit(TriggerDecline, entity.QuoteDeclined).
		Permit(TriggerArchive, entity.QuoteArchived)

	b.Configure(entity.QuoteViewed).
		Permit(TriggerAccept, entity.QuoteAccepted).
		Permit(TriggerDecline, entity.QuoteDeclined).
		Permit(TriggerArchive, entity.QuoteArchived)

	b.Configure(entity.QuoteAccepted).
		Permit(TriggerArchive, entity.QuoteArchived)

	b.Configure(entity.QuoteDeclined).
		Permit(TriggerArchive, entity.QuoteArchived)

	return b.Terminal(entity.QuoteArchived).Build()
}
