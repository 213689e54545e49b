package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const quoteColumns = `
	id, tenant_id, quote_number, year, sequence, version, parent_quote_id,
	customer_name, customer_email, property_address, zip_code, status, is_active,
	scheme_json, product_strategy, rates_json, areas_json, selections_json, totals_json,
	accepted_tier, created_by, created_at, updated_at,
	sent_at, viewed_at, accepted_at, declined_at, archived_at`

// QuoteRepository implements port.QuoteRepository
type QuoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// NextSequence returns max(sequence)+1 for the tenant and year
func (r *QuoteRepository) NextSequence(ctx context.Context, tenantID string, year int) (int, error) {
	var next int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM quotes WHERE tenant_id = ? AND year = ?`,
		tenantID, year,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to read quote sequence: %w", err)
	}
	return next, nil
}

// Create inserts a new quote
func (r *QuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	cols, err := quoteBlobs(q)
	if err != nil {
		return err
	}

	query := `INSERT INTO quotes (` + quoteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		q.ID, q.TenantID, q.QuoteNumber, q.Year, q.Sequence, q.Version, nullableString(q.ParentQuoteID),
		q.CustomerName, q.CustomerEmail, q.PropertyAddress, q.ZipCode, q.Status, q.IsActive,
		cols.scheme, q.Strategy, cols.rates, cols.areas, cols.selections, cols.totals,
		nullableString(string(q.AcceptedTier)), q.CreatedBy, q.CreatedAt.UTC(), q.UpdatedAt.UTC(),
		nullableTime(q.SentAt), nullableTime(q.ViewedAt), nullableTime(q.AcceptedAt),
		nullableTime(q.DeclinedAt), nullableTime(q.ArchivedAt),
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return &apperr.ConcurrentModificationError{Entity: "quote", ID: q.QuoteNumber}
		}
		r.logger.Error("Failed to create quote", zap.String("quote_number", q.QuoteNumber), zap.Error(err))
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by ID within a tenant
func (r *QuoteRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Quote, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE tenant_id = ? AND id = ?`, tenantID, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Entity: "quote", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// GetByNumber retrieves a quote by its tenant-scoped number
func (r *QuoteRepository) GetByNumber(ctx context.Context, tenantID, quoteNumber string) (*entity.Quote, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE tenant_id = ? AND quote_number = ?`, tenantID, quoteNumber)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Entity: "quote", ID: quoteNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// Update writes the mutable quote fields if the stored status still equals expected
func (r *QuoteRepository) Update(ctx context.Context, q *entity.Quote, expected entity.QuoteStatus) error {
	cols, err := quoteBlobs(q)
	if err != nil {
		return err
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE quotes SET
			customer_name = ?, customer_email = ?, property_address = ?, zip_code = ?,
			status = ?, is_active = ?, scheme_json = ?, product_strategy = ?, rates_json = ?,
			areas_json = ?, selections_json = ?, totals_json = ?, accepted_tier = ?, updated_at = ?,
			sent_at = ?, viewed_at = ?, accepted_at = ?, declined_at = ?, archived_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?`,
		q.CustomerName, q.CustomerEmail, q.PropertyAddress, q.ZipCode,
		q.Status, q.IsActive, cols.scheme, q.Strategy, cols.rates,
		cols.areas, cols.selections, cols.totals, nullableString(string(q.AcceptedTier)), q.UpdatedAt.UTC(),
		nullableTime(q.SentAt), nullableTime(q.ViewedAt), nullableTime(q.AcceptedAt),
		nullableTime(q.DeclinedAt), nullableTime(q.ArchivedAt),
		q.TenantID, q.ID, expected,
	)
	if err != nil {
		r.logger.Error("Failed to update quote", zap.String("quote_id", q.ID), zap.Error(err))
		return fmt.Errorf("failed to update quote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &apperr.ConcurrentModificationError{Entity: "quote", ID: q.ID}
	}
	return nil
}

// List returns quotes for a tenant, newest first
func (r *QuoteRepository) List(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error) {
	var (
		where = []string{"tenant_id = ?"}
		args  = []interface{}{tenantID}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.IncludeInactive {
		where = append(where, "is_active = 1")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC, sequence DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

type quoteJSON struct {
	scheme, rates, areas, selections, totals string
}

func quoteBlobs(q *entity.Quote) (quoteJSON, error) {
	var out quoteJSON
	scheme, err := entity.EncodeScheme(q.Scheme)
	if err != nil {
		return out, err
	}
	out.scheme = string(scheme)
	if out.rates, err = encodeJSON("rates", q.Rates); err != nil {
		return out, err
	}
	if out.areas, err = encodeJSON("areas", q.Areas); err != nil {
		return out, err
	}
	if out.selections, err = encodeJSON("selections", q.Selections); err != nil {
		return out, err
	}
	if out.totals, err = encodeJSON("totals", q.Totals); err != nil {
		return out, err
	}
	return out, nil
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var (
		q                                        entity.Quote
		parentID, acceptedTier                   sql.NullString
		email, address, zip, createdBy           sql.NullString
		scheme, rates, areas, selections, totals string
		sentAt, viewedAt, acceptedAt, declinedAt sql.NullTime
		archivedAt                               sql.NullTime
	)

	err := row.Scan(
		&q.ID, &q.TenantID, &q.QuoteNumber, &q.Year, &q.Sequence, &q.Version, &parentID,
		&q.CustomerName, &email, &address, &zip, &q.Status, &q.IsActive,
		&scheme, &q.Strategy, &rates, &areas, &selections, &totals,
		&acceptedTier, &createdBy, &q.CreatedAt, &q.UpdatedAt,
		&sentAt, &viewedAt, &acceptedAt, &declinedAt, &archivedAt,
	)
	if err != nil {
		return nil, err
	}

	q.ParentQuoteID = parentID.String
	q.CustomerEmail = email.String
	q.PropertyAddress = address.String
	q.ZipCode = zip.String
	q.CreatedBy = createdBy.String
	q.AcceptedTier = entity.Tier(acceptedTier.String)
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	q.SentAt = timePtr(sentAt)
	q.ViewedAt = timePtr(viewedAt)
	q.AcceptedAt = timePtr(acceptedAt)
	q.DeclinedAt = timePtr(declinedAt)
	q.ArchivedAt = timePtr(archivedAt)

	if q.Scheme, err = entity.DecodeScheme([]byte(scheme)); err != nil {
		return nil, err
	}
	if err := decodeJSON("rates", rates, &q.Rates); err != nil {
		return nil, err
	}
	if err := decodeJSON("areas", areas, &q.Areas); err != nil {
		return nil, err
	}
	if err := decodeJSON("selections", selections, &q.Selections); err != nil {
		return nil, err
	}
	if err := decodeJSON("totals", totals, &q.Totals); err != nil {
		return nil, err
	}
	return &q, nil
}

// Verify interface compliance
var _ port.QuoteRepository = (*QuoteRepository)(nil)
