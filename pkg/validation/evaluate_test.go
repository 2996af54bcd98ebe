package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

func TestEvaluate_NothingToCheckIsSafe(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "console.log('x');",
		TestType: models.TestTypePDP,
		Catalog:  pdpCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.15, b.TemplateScore)
	assert.Equal(t, 0.4, b.RuleScore)
	assert.Equal(t, 0.3, b.SelectorScore)
	assert.Equal(t, 0.85, b.OverallScore)
	assert.True(t, b.IsValid)
	assert.Equal(t, models.ValidationPassed, b.ValidationStatus)
	assert.Equal(t, models.RecommendSafeToUse, b.Recommendation)
	assert.False(t, b.TemplateFound)
	assert.False(t, b.RequiresReview)
	require.Len(t, b.Notes, 1)
	assert.Contains(t, b.Notes[0], "no active template")
}

func TestEvaluate_SoleForbiddenPatternFails(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "eval(payload);",
		TestType: models.TestTypePDP,
		Rules:    []models.CodeRule{rule(models.RuleTypeForbiddenPattern, "eval(", 10)},
		Catalog:  pdpCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, b.RuleScore)
	assert.Equal(t, models.ValidationFailed, b.ValidationStatus)
	assert.Equal(t, models.RecommendNeedsFixes, b.Recommendation)
	assert.Len(t, b.RuleViolations, 1)
	assert.NotEmpty(t, b.Reasons)
}

func TestEvaluate_OneKnownOneUnknownSelector(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "document.querySelector('.add-to-cart').click();\ndocument.querySelector('.ghost').remove();",
		TestType: models.TestTypePDP,
		Catalog:  pdpCatalog(selector(".add-to-cart", models.PageTypePDP, models.SelectorStatusActive)),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.15, b.SelectorScore)
	assert.Equal(t, []string{".ghost"}, b.InvalidSelectors)
	assert.Equal(t, []string{".add-to-cart", ".ghost"}, b.UsedSelectors)
	assert.False(t, b.IsValid)
}

func TestEvaluate_UserProvidedSelectorRequiresReview(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "document.querySelector('#my-banner').remove();",
		TestType: models.TestTypeHome,
		Catalog:  SelectorCatalog{PageType: models.PageTypeHome},
		Metadata: map[string]any{"prompt": "hide #my-banner on the home page"},
	})
	require.NoError(t, err)

	assert.True(t, b.RequiresReview)
	assert.Equal(t, []string{"#my-banner"}, b.UserProvidedSelectors)
}

func TestEvaluate_CatalogUnavailable(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "document.querySelector('.add-to-cart').click();",
		TestType: models.TestTypePDP,
		Catalog:  SelectorCatalog{PageType: models.PageTypePDP, Err: errors.New("timeout")},
	})
	require.NoError(t, err)

	assert.True(t, b.SelectorsUnvalidated)
	assert.Equal(t, 0.15, b.SelectorScore)
	assert.Empty(t, b.InvalidSelectors)
	assert.NotEqual(t, models.RecommendSafeToUse, b.Recommendation)
}

func TestEvaluate_SkippedRuleNoted(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "run();",
		TestType: models.TestTypePDP,
		Rules:    []models.CodeRule{rule(models.RuleTypeForbiddenPattern, "/(/", 5)},
		Catalog:  pdpCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.4, b.RuleScore)
	assert.Len(t, b.SkippedRules, 1)
	assert.Contains(t, joinReasons(b.Notes), "skipped")
	assert.True(t, b.IsValid)
}

func TestEvaluate_TruncatedCodeFlagged(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "el.addEventListener('click', function () {",
		TestType: models.TestTypePDP,
		Catalog:  pdpCatalog(),
	})
	require.NoError(t, err)

	assert.True(t, b.Truncated)
	assert.Contains(t, joinReasons(b.Notes), "truncated")
}

func TestEvaluate_SelectorAfterRegexLiteralIsChecked(t *testing.T) {
	b, err := Evaluate(Input{
		Code:     "var s = name.replace(/'/g, \"\");\ndocument.querySelector('.ghost').remove();",
		TestType: models.TestTypePDP,
		Catalog:  pdpCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{".ghost"}, b.InvalidSelectors)
	assert.Equal(t, 0.0, b.SelectorScore)
	assert.False(t, b.Truncated)
	assert.Equal(t, models.RecommendNeedsFixes, b.Recommendation)
}

func TestEvaluate_CompleteCodeWithoutSemicolonIsSafe(t *testing.T) {
	b, err := Evaluate(Input{Code: "const ready = true", TestType: models.TestTypePDP})
	require.NoError(t, err)

	assert.True(t, b.Truncated)
	assert.Equal(t, 0.85, b.OverallScore)
	assert.True(t, b.IsValid)
	assert.Equal(t, models.RecommendSafeToUse, b.Recommendation)
	assert.Empty(t, b.Reasons)
}

func TestEvaluate_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"empty code", Input{Code: "", TestType: models.TestTypePDP}, "code"},
		{"whitespace code", Input{Code: " \n\t", TestType: models.TestTypePDP}, "code"},
		{"unknown test type", Input{Code: "run();", TestType: "landing"}, "test_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Evaluate(tt.in)
			assert.Nil(t, b)

			var inputErr *ValidationInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := Input{
		Code: "// @setup\nfunction initVariant() { document.querySelector('.a').click(); document.querySelector('.b'); }\n",
		TestType: models.TestTypePDP,
		Rules: []models.CodeRule{
			rule(models.RuleTypeRequiredPattern, "try {", 4),
			rule(models.RuleTypeForbiddenPattern, "/[/", 3),
		},
		Catalog:  pdpCatalog(selector(".a", models.PageTypePDP, models.SelectorStatusActive)),
		Template: tmpl(pdpTemplate),
		Metadata: map[string]any{"prompt": "click .b"},
	}

	first, err := Evaluate(in)
	require.NoError(t, err)
	second, err := Evaluate(in)
	require.NoError(t, err)

	first.ScoredAt = time.Time{}
	second.ScoredAt = time.Time{}
	assert.Equal(t, first, second)
}
