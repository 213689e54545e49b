package port

import (
	"context"

	"github.com/brushline/paintquote/internal/domain/entity"
)

// QuoteFilter narrows quote listings
type QuoteFilter struct {
	Status          entity.QuoteStatus
	IncludeInactive bool
	Limit           int
	Offset          int
}

// QuoteRepository defines persistence operations for Quote
type QuoteRepository interface {
	// NextSequence returns the next quote sequence for a tenant and year. Call inside a transaction.
	NextSequence(ctx context.Context, tenantID string, year int) (int, error)
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Quote, error)
	GetByNumber(ctx context.Context, tenantID, quoteNumber string) (*entity.Quote, error)
	// Update writes the quote only if its stored status still equals expected.
	Update(ctx context.Context, quote *entity.Quote, expected entity.QuoteStatus) error
	List(ctx context.Context, tenantID string, filter QuoteFilter) ([]*entity.Quote, error)
}

// JobRepository defines persistence operations for Job
type JobRepository interface {
	// Create fails with ConcurrentModificationError when the quote already has a job.
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Job, error)
	GetByQuoteID(ctx context.Context, tenantID, quoteID string) (*entity.Job, error)
	// Update writes the job only if its stored version equals job.Version, then bumps it.
	Update(ctx context.Context, job *entity.Job) error
	List(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error)
}

// PaymentRepository defines persistence operations for PaymentRecord
type PaymentRepository interface {
	// Create fails with ConcurrentModificationError on a duplicate reference.
	Create(ctx context.Context, payment *entity.PaymentRecord) error
	GetByReference(ctx context.Context, referenceID string) (*entity.PaymentRecord, error)
	// Update writes the record only if its stored version equals payment.Version, then bumps it.
	Update(ctx context.Context, payment *entity.PaymentRecord) error
	ListByJob(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error)
}

// AuditRepository is the append-only transition ledger
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	ListByEntity(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error)
	// ListAfter returns entries with Seq greater than afterSeq in Seq order.
	ListAfter(ctx context.Context, afterSeq int64, limit int) ([]*entity.AuditLogEntry, error)
}

// CheckpointRepository stores worker progress markers
type CheckpointRepository interface {
	Get(ctx context.Context, name string) (int64, error)
	Set(ctx context.Context, name string, value int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
