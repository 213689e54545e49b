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

const jobColumns = `
	id, tenant_id, quote_id, quote_number, tier, status, resume_status,
	total, currency, deposit_amount, deposit_paid, deposit_paid_at,
	balance_remaining, final_payment_status, portal_open,
	scheduled_start_date, scheduled_end_date, started_at, completed_at, closed_at,
	completion_notes, area_progress_json, selections_json, crew_json, version, created_at, updated_at`

// JobRepository implements port.JobRepository
type JobRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sql.DB, logger *zap.Logger) port.JobRepository {
	return &JobRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a job. The quote_id unique index guarantees one job per quote.
func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	progress, err := encodeJSON("area_progress", job.AreaProgress)
	if err != nil {
		return err
	}
	selections, err := encodeJSON("selections", job.Selections)
	if err != nil {
		return err
	}
	crew, err := encodeJSON("crew", crewList(job.Crew))
	if err != nil {
		return err
	}
	if job.Version == 0 {
		job.Version = 1
	}

	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		job.ID, job.TenantID, job.QuoteID, job.QuoteNumber, job.Tier, job.Status, nullableString(string(job.ResumeStatus)),
		job.Total, job.Currency, job.DepositAmount, job.DepositPaid, nullableTime(job.DepositPaidAt),
		job.BalanceRemaining, nullableString(string(job.FinalPaymentStatus)), job.PortalOpen,
		nullableTime(job.ScheduledStartDate), nullableTime(job.ScheduledEndDate),
		nullableTime(job.StartedAt), nullableTime(job.CompletedAt), nullableTime(job.ClosedAt),
		nullableString(job.CompletionNotes), progress, selections, crew, job.Version,
		job.CreatedAt.UTC(), job.UpdatedAt.UTC(),
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return &apperr.ConcurrentModificationError{Entity: "job", ID: job.QuoteID}
		}
		r.logger.Error("Failed to create job", zap.String("quote_id", job.QuoteID), zap.Error(err))
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID within a tenant
func (r *JobRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Job, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE tenant_id = ? AND id = ?`, tenantID, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Entity: "job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetByQuoteID retrieves the job derived from a quote
func (r *JobRepository) GetByQuoteID(ctx context.Context, tenantID, quoteID string) (*entity.Job, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE tenant_id = ? AND quote_id = ?`, tenantID, quoteID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Entity: "job", ID: "quote:" + quoteID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job by quote: %w", err)
	}
	return job, nil
}

// Update writes the job if its stored version equals job.Version, then bumps the version
func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	progress, err := encodeJSON("area_progress", job.AreaProgress)
	if err != nil {
		return err
	}
	selections, err := encodeJSON("selections", job.Selections)
	if err != nil {
		return err
	}
	crew, err := encodeJSON("crew", crewList(job.Crew))
	if err != nil {
		return err
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE jobs SET
			status = ?, resume_status = ?, total = ?, deposit_amount = ?, deposit_paid = ?,
			deposit_paid_at = ?, balance_remaining = ?, final_payment_status = ?, portal_open = ?,
			scheduled_start_date = ?, scheduled_end_date = ?, started_at = ?, completed_at = ?,
			closed_at = ?, completion_notes = ?, area_progress_json = ?, selections_json = ?,
			crew_json = ?, version = version + 1, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		job.Status, nullableString(string(job.ResumeStatus)), job.Total, job.DepositAmount, job.DepositPaid,
		nullableTime(job.DepositPaidAt), job.BalanceRemaining, nullableString(string(job.FinalPaymentStatus)), job.PortalOpen,
		nullableTime(job.ScheduledStartDate), nullableTime(job.ScheduledEndDate), nullableTime(job.StartedAt),
		nullableTime(job.CompletedAt), nullableTime(job.ClosedAt), nullableString(job.CompletionNotes),
		progress, selections, crew, job.UpdatedAt.UTC(),
		job.TenantID, job.ID, job.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update job", zap.String("job_id", job.ID), zap.Error(err))
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &apperr.ConcurrentModificationError{Entity: "job", ID: job.ID}
	}

	job.Version++
	return nil
}

// List returns a tenant's jobs, optionally filtered by status
func (r *JobRepository) List(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		job                              entity.Job
		resume, finalStatus, notes       sql.NullString
		depositPaidAt, start, end        sql.NullTime
		startedAt, completedAt, closedAt sql.NullTime
		progress, selections, crew       string
	)

	err := row.Scan(
		&job.ID, &job.TenantID, &job.QuoteID, &job.QuoteNumber, &job.Tier, &job.Status, &resume,
		&job.Total, &job.Currency, &job.DepositAmount, &job.DepositPaid, &depositPaidAt,
		&job.BalanceRemaining, &finalStatus, &job.PortalOpen,
		&start, &end, &startedAt, &completedAt, &closedAt,
		&notes, &progress, &selections, &crew, &job.Version, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ResumeStatus = entity.JobStatus(resume.String)
	job.FinalPaymentStatus = entity.FinalPaymentStatus(finalStatus.String)
	job.CompletionNotes = notes.String
	job.DepositPaidAt = timePtr(depositPaidAt)
	job.ScheduledStartDate = timePtr(start)
	job.ScheduledEndDate = timePtr(end)
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)
	job.ClosedAt = timePtr(closedAt)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()

	if err := decodeJSON("area_progress", progress, &job.AreaProgress); err != nil {
		return nil, err
	}
	if err := decodeJSON("selections", selections, &job.Selections); err != nil {
		return nil, err
	}
	if err := decodeJSON("crew", crew, &job.Crew); err != nil {
		return nil, err
	}
	if len(job.Crew) == 0 {
		job.Crew = nil
	}
	if job.AreaProgress == nil {
		job.AreaProgress = make(map[string]entity.AreaProgressStatus)
	}
	return &job, nil
}

// crewList stores an unassigned crew as an empty array
func crewList(crew []string) []string {
	if crew == nil {
		return []string{}
	}
	return crew
}

// Verify interface compliance
var _ port.JobRepository = (*JobRepository)(nil)
