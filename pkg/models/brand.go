// Package models contains domain types for safecode-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand status constants.
const (
	BrandStatusActive   = "active"
	BrandStatusInactive = "inactive"
)

// Brand owns the rules, selectors, and templates that generated code is scored against.
type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive returns true if code may be validated for this brand.
func (b *Brand) IsActive() bool {
	return b.Status == BrandStatusActive
}
