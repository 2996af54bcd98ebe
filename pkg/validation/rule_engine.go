package validation

import (
	"fmt"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// RuleResult is the outcome of one RuleEngine pass.
type RuleResult struct {
	Violations []models.RuleViolation
	Skipped    []models.SkippedRule
	Score      float64
}

// Messages returns the violation messages in evaluation order.
func (r RuleResult) Messages() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Message)
	}
	return out
}

// EvaluateRules checks code against every active rule and returns the rule
// sub-score in [0, RuleWeight]. Each violated rule costs its share of the
// total priority of all scorable rules. Malformed rules are skipped and do
// not count toward that total.
func EvaluateRules(code string, rules []models.CodeRule) RuleResult {
	result := RuleResult{
		Violations: []models.RuleViolation{},
	}

	matchers := make([]Matcher, 0, len(rules))
	total := 0
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		m, err := CompileRule(rule)
		if err != nil {
			result.Skipped = append(result.Skipped, models.SkippedRule{
				RuleID:   rule.ID.String(),
				RuleType: rule.RuleType,
				Reason:   err.Error(),
			})
			continue
		}
		matchers = append(matchers, m)
		total += rule.Priority
	}

	if total == 0 {
		result.Score = models.RuleWeight
		return result
	}

	s := newSubject(code)
	violated := 0
	for _, m := range matchers {
		detail := m.violation(s)
		if detail == "" {
			continue
		}
		rule := m.Rule()
		violated += rule.Priority
		result.Violations = append(result.Violations, models.RuleViolation{
			RuleID:   rule.ID.String(),
			RuleType: rule.RuleType,
			Priority: rule.Priority,
			Message:  violationMessage(rule, detail),
		})
	}

	score := models.RuleWeight * (1 - float64(violated)/float64(total))
	result.Score = round4(clamp(score, 0, models.RuleWeight))
	return result
}

func violationMessage(rule models.CodeRule, detail string) string {
	if rule.Description != "" {
		return fmt.Sprintf("%s: %s (priority %d)", rule.Description, detail, rule.Priority)
	}
	return fmt.Sprintf("%s: %s (priority %d)", rule.RuleType, detail, rule.Priority)
}
