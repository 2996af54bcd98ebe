package validation

import (
	"fmt"
	"time"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// ScoreInput carries the three sub-scores and their evidence into Score.
type ScoreInput struct {
	TemplateScore float64
	RuleScore     float64
	SelectorScore float64

	Violations       []models.RuleViolation
	InvalidSelectors []string

	// Advisory flags. Each one keeps the code out of safe_to_use without
	// changing is_valid or the validation status.
	SelectorsUnvalidated bool
	Truncated            bool
	InjectionSuspected   bool

	// Reasons already attributed by the sub-scorers.
	Reasons []string
}

// Score combines sub-scores into a breakdown. It performs no I/O and has no
// side effects; equal inputs always produce equal breakdowns apart from ScoredAt.
func Score(in ScoreInput) *models.ConfidenceBreakdown {
	template := round4(clamp(in.TemplateScore, 0, models.TemplateWeight))
	rule := round4(clamp(in.RuleScore, 0, models.RuleWeight))
	selector := round4(clamp(in.SelectorScore, 0, models.SelectorWeight))
	overall := round4(clamp(template+rule+selector, 0, 1))

	messages := make([]string, 0, len(in.Violations))
	failing := false
	for _, v := range in.Violations {
		messages = append(messages, v.Message)
		if v.Priority >= FailingPriority {
			failing = true
		}
	}
	invalid := in.InvalidSelectors
	if invalid == nil {
		invalid = []string{}
	}

	b := &models.ConfidenceBreakdown{
		TemplateScore:        template,
		RuleScore:            rule,
		SelectorScore:        selector,
		OverallScore:         overall,
		RuleViolations:       messages,
		InvalidSelectors:     invalid,
		Violations:           in.Violations,
		IsValid:              len(in.Violations) == 0 && len(invalid) == 0,
		SelectorsUnvalidated: in.SelectorsUnvalidated,
		Truncated:            in.Truncated,
		InjectionSuspected:   in.InjectionSuspected,
		ScoredAt:             time.Now().UTC(),
	}

	switch {
	case b.IsValid:
		b.ValidationStatus = models.ValidationPassed
	case failing:
		b.ValidationStatus = models.ValidationFailed
	default:
		b.ValidationStatus = models.ValidationWarning
	}

	// Truncated and InjectionSuspected are notes only; they never move the recommendation.
	switch {
	case overall < NeedsFixesThreshold || b.ValidationStatus == models.ValidationFailed:
		b.Recommendation = models.RecommendNeedsFixes
	case overall >= SafeToUseThreshold && b.IsValid && !in.SelectorsUnvalidated:
		b.Recommendation = models.RecommendSafeToUse
	default:
		b.Recommendation = models.RecommendReviewCarefully
	}

	if b.Recommendation != models.RecommendSafeToUse {
		b.Reasons = recommendationReasons(in, messages, overall)
	}
	return b
}

func recommendationReasons(in ScoreInput, violations []string, overall float64) []string {
	reasons := append([]string{}, violations...)
	reasons = append(reasons, in.Reasons...)
	if in.SelectorsUnvalidated {
		reasons = append(reasons, "selector catalog unavailable; selectors could not be validated")
	}
	if in.Truncated {
		reasons = append(reasons, "code appears truncated")
	}
	if in.InjectionSuspected {
		reasons = append(reasons, "string literal resembles a script injection payload")
	}
	switch {
	case overall < NeedsFixesThreshold:
		reasons = append(reasons, fmt.Sprintf("overall score %.2f is below %.2f", overall, NeedsFixesThreshold))
	case overall < SafeToUseThreshold:
		reasons = append(reasons, fmt.Sprintf("overall score %.2f is below the %.2f safe-to-use threshold", overall, SafeToUseThreshold))
	}
	return reasons
}
