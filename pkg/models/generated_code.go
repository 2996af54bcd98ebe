package models

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedCode is a drafted snippet together with its score and review state.
// ConfidenceScore always equals Breakdown.OverallScore.
type GeneratedCode struct {
	ID              uuid.UUID            `json:"id"`
	BrandID         uuid.UUID            `json:"brand_id"`
	ConversationID  *uuid.UUID           `json:"conversation_id,omitempty"`
	TestType        string               `json:"test_type"`
	PageType        string               `json:"page_type"`
	RequestMetadata map[string]any       `json:"request_metadata,omitempty"`
	Code            string               `json:"generated_code"`
	ConfidenceScore float64              `json:"confidence_score"`
	Breakdown       *ConfidenceBreakdown `json:"confidence_breakdown"`
	RequiresReview  bool                 `json:"requires_review"`
	Status          CodeStatus           `json:"status"`
	CreatedBy       *uuid.UUID           `json:"created_by,omitempty"`

	// Review fields, populated by lifecycle transitions.
	ReviewerID      *uuid.UUID `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewerNotes   *string    `json:"reviewer_notes,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	DeployedAt      *time.Time `json:"deployed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneratedCodeFilters narrows a listing of generated code for one brand.
type GeneratedCodeFilters struct {
	Status *CodeStatus
	Limit  int
	Offset int
}

// StatusChange is the field update applied by one accepted transition.
// From is the compare-and-swap precondition.
type StatusChange struct {
	CodeID          uuid.UUID
	From            CodeStatus
	To              CodeStatus
	ReviewerID      *uuid.UUID
	ReviewerNotes   *string
	RejectionReason *string
	At              time.Time
}
