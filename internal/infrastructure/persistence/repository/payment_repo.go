package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const paymentColumns = `
	id, tenant_id, reference_id, kind, quote_id, job_id, expected_amount, currency,
	status, paid_amount, paid_at, failure_reason, version, created_at, updated_at`

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a pending payment. reference_id is unique across tenants.
func (r *PaymentRepository) Create(ctx context.Context, p *entity.PaymentRecord) error {
	if p.Version == 0 {
		p.Version = 1
	}
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.ReferenceID, p.Kind, p.QuoteID, nullableString(p.JobID), p.ExpectedAmount, p.Currency,
		p.Status, p.PaidAmount, nullableTime(p.PaidAt), nullableString(p.FailureReason), p.Version,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return &apperr.ConcurrentModificationError{Entity: "payment", ID: p.ReferenceID}
		}
		r.logger.Error("Failed to create payment", zap.String("reference_id", p.ReferenceID), zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByReference retrieves a payment by its gateway reference
func (r *PaymentRepository) GetByReference(ctx context.Context, referenceID string) (*entity.PaymentRecord, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reference_id = ?`, referenceID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.PaymentRecordNotFoundError{ReferenceID: referenceID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// Update writes the record if its stored version equals p.Version, then bumps the version
func (r *PaymentRepository) Update(ctx context.Context, p *entity.PaymentRecord) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE payments SET
			job_id = ?, status = ?, paid_amount = ?, paid_at = ?, failure_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		nullableString(p.JobID), p.Status, p.PaidAmount, nullableTime(p.PaidAt), nullableString(p.FailureReason),
		p.UpdatedAt.UTC(), p.ID, p.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update payment", zap.String("reference_id", p.ReferenceID), zap.Error(err))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &apperr.ConcurrentModificationError{Entity: "payment", ID: p.ReferenceID}
	}

	p.Version++
	return nil
}

// ListByJob returns the payments linked to a job, oldest first
func (r *PaymentRepository) ListByJob(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = ? AND job_id = ? ORDER BY created_at ASC`,
		tenantID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (*entity.PaymentRecord, error) {
	var (
		p             entity.PaymentRecord
		jobID, reason sql.NullString
		paidAt        sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.TenantID, &p.ReferenceID, &p.Kind, &p.QuoteID, &jobID, &p.ExpectedAmount, &p.Currency,
		&p.Status, &p.PaidAmount, &paidAt, &reason, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.JobID = jobID.String
	p.FailureReason = reason.String
	p.PaidAt = timePtr(paidAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Verify interface compliance
var _ port.PaymentRepository = (*PaymentRepository)(nil)
