package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const auditColumns = `
	seq, id, tenant_id, entity_type, entity_id, action, previous_status, new_status,
	actor_id, reason, data, created_at`

// AuditRepository implements port.AuditRepository. The audit_log table rejects
// UPDATE and DELETE through triggers, so this type only inserts and reads.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one ledger entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO audit_log (
			id, tenant_id, entity_type, entity_id, action, previous_status, new_status,
			actor_id, reason, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TenantID, entry.EntityType, entry.EntityID, entry.Action,
		nullableString(entry.PreviousStatus), nullableString(entry.NewStatus),
		entry.ActorID, nullableString(entry.Reason), nullableString(entry.Data), entry.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.Seq = seq
	return nil
}

// ListByEntity returns an entity's entries in creation order
func (r *AuditRepository) ListByEntity(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, seq ASC`,
		tenantID, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.String("entity_id", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// ListAfter returns entries with seq greater than afterSeq
func (r *AuditRepository) ListAfter(ctx context.Context, afterSeq int64, limit int) ([]*entity.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?`,
		afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

func scanAuditRows(rows *sql.Rows) ([]*entity.AuditLogEntry, error) {
	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var (
			e            entity.AuditLogEntry
			prev, next   sql.NullString
			reason, data sql.NullString
		)
		err := rows.Scan(
			&e.Seq, &e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &e.Action, &prev, &next,
			&e.ActorID, &reason, &data, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.PreviousStatus = prev.String
		e.NewStatus = next.String
		e.Reason = reason.String
		e.Data = data.String
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
