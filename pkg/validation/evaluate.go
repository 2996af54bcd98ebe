// Package validation scores generated A/B-test snippets against a brand's
// coding rules, selector catalog, and template. Everything here is pure:
// no I/O, no shared mutable state, and identical inputs give identical results.
package validation

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Input is everything one scoring run reads.
type Input struct {
	Code     string
	TestType string
	Rules    []models.CodeRule
	Catalog  SelectorCatalog
	Template *models.Template
	Metadata map[string]any
}

// Validate checks that in can be scored at all.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return NewInputError("code", "code must not be empty")
	}
	if !models.IsValidTestType(in.TestType) {
		return NewInputError("test_type", fmt.Sprintf("unknown test type %q", in.TestType))
	}
	return nil
}

// Evaluate runs the rule, selector, and template sub-scorers concurrently and
// combines them into a breakdown. The only error is a ValidationInputError.
func Evaluate(in Input) (*models.ConfidenceBreakdown, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		rules     RuleResult
		selectors SelectorResult
		template  TemplateResult
		truncated bool
		injection []string
	)

	// The sub-scorers share only read-only inputs.
	var g errgroup.Group
	g.Go(func() error {
		rules = EvaluateRules(in.Code, in.Rules)
		return nil
	})
	g.Go(func() error {
		selectors = ValidateSelectors(in.Code, in.Catalog, in.Metadata)
		return nil
	})
	g.Go(func() error {
		template = MatchTemplate(in.Code, in.Template, in.TestType)
		return nil
	})
	g.Go(func() error {
		truncated = IsTruncated(in.Code)
		injection = FindScriptInjection(in.Code)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := Score(ScoreInput{
		TemplateScore:        template.Score,
		RuleScore:            rules.Score,
		SelectorScore:        selectors.Score,
		Violations:           rules.Violations,
		InvalidSelectors:     selectors.Invalid,
		SelectorsUnvalidated: selectors.Unvalidated,
		Truncated:            truncated,
		InjectionSuspected:   len(injection) > 0,
		Reasons:              selectors.Reasons,
	})

	b.UsedSelectors = selectors.Used
	b.UserProvidedSelectors = selectors.UserProvided
	b.RequiresReview = len(selectors.UserProvided) > 0
	b.SkippedRules = rules.Skipped
	b.TemplateFound = template.Found

	b.Notes = append(b.Notes, template.Notes...)
	for _, s := range rules.Skipped {
		b.Notes = append(b.Notes, fmt.Sprintf("rule %s (%s) skipped: %s", s.RuleID, s.RuleType, s.Reason))
	}
	if truncated {
		b.Notes = append(b.Notes, "code appears truncated; check that generation completed")
	}
	for _, lit := range injection {
		b.Notes = append(b.Notes, injectionNote(lit))
	}

	return b, nil
}
