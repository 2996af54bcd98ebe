package models

import "time"

// Sub-score weights. The overall score is their sum, so it never exceeds 1.0.
const (
	TemplateWeight = 0.3
	RuleWeight     = 0.4
	SelectorWeight = 0.3
)

// ValidationStatus summarizes whether a snippet passed validation.
type ValidationStatus string

const (
	ValidationPassed  ValidationStatus = "passed"
	ValidationFailed  ValidationStatus = "failed"
	ValidationWarning ValidationStatus = "warning"
)

// Recommendation is the reviewer-facing tier derived from the overall score.
type Recommendation string

const (
	RecommendSafeToUse       Recommendation = "safe_to_use"
	RecommendReviewCarefully Recommendation = "review_carefully"
	RecommendNeedsFixes      Recommendation = "needs_fixes"
)

// RuleViolation is a structured record of one violated rule.
type RuleViolation struct {
	RuleID   string `json:"rule_id"`
	RuleType string `json:"rule_type"`
	Priority int    `json:"priority"`
	Message  string `json:"message"`
}

// SkippedRule is a malformed rule excluded from scoring.
type SkippedRule struct {
	RuleID   string `json:"rule_id"`
	RuleType string `json:"rule_type"`
	Reason   string `json:"reason"`
}

// ConfidenceBreakdown explains one scoring run. It is written once with its
// GeneratedCode record and never edited; re-scoring produces a new breakdown.
type ConfidenceBreakdown struct {
	TemplateScore float64 `json:"template_score"`
	RuleScore     float64 `json:"rule_score"`
	SelectorScore float64 `json:"selector_score"`
	OverallScore  float64 `json:"overall_score"`

	RuleViolations   []string `json:"rule_violations"`
	InvalidSelectors []string `json:"invalid_selectors"`

	IsValid          bool             `json:"is_valid"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Recommendation   Recommendation   `json:"recommendation"`

	Violations            []RuleViolation `json:"violations,omitempty"`
	SkippedRules          []SkippedRule   `json:"skipped_rules,omitempty"`
	UsedSelectors         []string        `json:"used_selectors"`
	UserProvidedSelectors []string        `json:"user_provided_selectors,omitempty"`
	Notes                 []string        `json:"notes,omitempty"`
	Reasons               []string        `json:"reasons,omitempty"`

	SelectorsUnvalidated bool `json:"selectors_unvalidated"`
	TemplateFound        bool `json:"template_found"`
	Truncated            bool `json:"truncated"`
	InjectionSuspected   bool `json:"injection_suspected"`
	RequiresReview       bool `json:"requires_review"`

	ScoredAt time.Time `json:"scored_at"`
}
