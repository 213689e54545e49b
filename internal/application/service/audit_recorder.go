package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/entity"
)

// Change describes one audited mutation
type Change struct {
	TenantID   string
	EntityType entity.EntityType
	EntityID   string
	Action     string
	From       string
	To         string
	ActorID    string
	Reason     string
	Data       interface{}
}

// AuditRecorder appends to the transition ledger. Record must run inside the
// transaction of the mutation it describes.
type AuditRecorder struct {
	repo   port.AuditRepository
	now    func() time.Time
	logger Logger
}

// NewAuditRecorder creates a new AuditRecorder
func NewAuditRecorder(repo port.AuditRepository, logger Logger) *AuditRecorder {
	return &AuditRecorder{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Record writes one entry for c
func (r *AuditRecorder) Record(ctx context.Context, c Change) error {
	entry := &entity.AuditLogEntry{
		TenantID:       c.TenantID,
		EntityType:     c.EntityType,
		EntityID:       c.EntityID,
		Action:         c.Action,
		PreviousStatus: c.From,
		NewStatus:      c.To,
		ActorID:        c.ActorID,
		Reason:         c.Reason,
		CreatedAt:      r.now(),
	}
	if entry.ActorID == "" {
		entry.ActorID = "system"
	}
	if c.Data != nil {
		data, err := json.Marshal(c.Data)
		if err != nil {
			return fmt.Errorf("encode audit data: %w", err)
		}
		entry.Data = string(data)
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		r.logger.Error("Failed to record audit entry", "error", err,
			"entity_type", c.EntityType, "entity_id", c.EntityID, "action", c.Action)
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Trail returns an entity's ledger in creation order
func (r *AuditRecorder) Trail(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error) {
	entries, err := r.repo.ListByEntity(ctx, tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
