package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// CodeRuleRepository provides read access to brand coding rules.
type CodeRuleRepository interface {
	// ListActiveByBrand returns the brand's active rules, highest priority first.
	ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CodeRule, error)
}

type codeRuleRepository struct{}

// NewCodeRuleRepository creates a new CodeRuleRepository.
func NewCodeRuleRepository() CodeRuleRepository {
	return &codeRuleRepository{}
}

var _ CodeRuleRepository = (*codeRuleRepository)(nil)

func (r *codeRuleRepository) ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CodeRule, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, brand_id, rule_type, rule_content, priority, is_active, COALESCE(description, ''), created_at
		FROM code_rules
		WHERE brand_id = $1 AND is_active
		ORDER BY priority DESC, created_at ASC`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list code rules: %w", err)
	}
	defer rows.Close()

	rules := []models.CodeRule{}
	for rows.Next() {
		var rule models.CodeRule
		if err := rows.Scan(
			&rule.ID, &rule.BrandID, &rule.RuleType, &rule.RuleContent,
			&rule.Priority, &rule.IsActive, &rule.Description, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan code rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating code rules: %w", err)
	}
	return rules, nil
}
