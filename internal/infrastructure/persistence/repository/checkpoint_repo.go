package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/sqlite"
)

// CheckpointRepository implements port.CheckpointRepository
type CheckpointRepository struct {
	db *sql.DB
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(db *sql.DB) port.CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// Get returns the stored value, or zero when none exists
func (r *CheckpointRepository) Get(ctx context.Context, name string) (int64, error) {
	var value int64
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT value FROM checkpoints WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get checkpoint %s: %w", name, err)
	}
	return value, nil
}

// Set upserts the value
func (r *CheckpointRepository) Set(ctx context.Context, name string, value int64) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO checkpoints (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set checkpoint %s: %w", name, err)
	}
	return nil
}

// Verify interface compliance
var _ port.CheckpointRepository = (*CheckpointRepository)(nil)
