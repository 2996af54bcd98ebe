package models

import (
	"time"

	"github.com/google/uuid"
)

// Rule type constants as stored in code_rules.rule_type.
const (
	RuleTypeForbiddenPattern = "forbidden_pattern"
	RuleTypeRequiredPattern  = "required_pattern"
	RuleTypeMaxLength        = "max_length"
	RuleTypeMinLength        = "min_length"
)

// Rule priority bounds.
const (
	MinRulePriority = 1
	MaxRulePriority = 10
)

// CodeRule is a brand coding standard checked against every generated snippet.
// RuleContent is a pattern for pattern rules and a numeric threshold for length rules.
type CodeRule struct {
	ID          uuid.UUID `json:"id"`
	BrandID     uuid.UUID `json:"brand_id"`
	RuleType    string    `json:"rule_type"`
	RuleContent string    `json:"rule_content"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
