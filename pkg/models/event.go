package models

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants for notification events.
const (
	EventReviewRequired = "review_required"
	EventApproved       = "approved"
	EventRejected       = "rejected"
)

// CodeEvent is published for external notification delivery.
type CodeEvent struct {
	Type            string     `json:"type"`
	GeneratedCodeID uuid.UUID  `json:"generated_code_id"`
	BrandID         uuid.UUID  `json:"brand_id"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	Status          CodeStatus `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}
