package entity

import "time"

// AuditLogEntry is one immutable row of the transition ledger.
type AuditLogEntry struct {
	Seq            int64      `json:"seq"`
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	EntityType     EntityType `json:"entity_type"`
	EntityID       string     `json:"entity_id"`
	Action         string     `json:"action"`
	PreviousStatus string     `json:"previous_status,omitempty"`
	NewStatus      string     `json:"new_status,omitempty"`
	ActorID        string     `json:"actor_id"`
	Reason         string     `json:"reason,omitempty"`
	Data           string     `json:"data,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
