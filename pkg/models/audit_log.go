package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records one accepted lifecycle transition.
// Stored in code_audit_log, which rejects UPDATE and DELETE.
type AuditLogEntry struct {
	ID              uuid.UUID  `json:"id"`
	Seq             int64      `json:"seq"` // Monotonic ledger index, assigned on insert
	GeneratedCodeID uuid.UUID  `json:"generated_code_id"`
	BrandID         uuid.UUID  `json:"brand_id"`
	ActorID         uuid.UUID  `json:"actor_id"`
	Action          string     `json:"action"`
	PreviousStatus  CodeStatus `json:"previous_status"`
	NewStatus       CodeStatus `json:"new_status"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AuditFilters contains filter options for querying the audit trail.
type AuditFilters struct {
	GeneratedCodeID *uuid.UUID
	BrandID         *uuid.UUID
	ActorID         *uuid.UUID
	Action          string
	Since           *time.Time
	Until           *time.Time
	Limit           int
	Offset          int
}
