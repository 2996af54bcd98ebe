package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

func TestValidationService_Score_Valid(t *testing.T) {
	env := newTestEnv()

	res, err := env.validation.Score(context.Background(), ScoreRequest{
		BrandID:  env.brand.ID,
		TestType: models.TestTypePDP,
		Code:     validPDPCode,
	})
	require.NoError(t, err)

	b := res.Breakdown
	assert.Equal(t, models.PageTypePDP, res.PageType)
	assert.True(t, b.IsValid)
	assert.Equal(t, models.ValidationPassed, b.ValidationStatus)
	assert.Equal(t, []string{"#add-to-cart"}, b.UsedSelectors)
	assert.InDelta(t, models.RuleWeight, b.RuleScore, 1e-9)
	assert.InDelta(t, models.SelectorWeight, b.SelectorScore, 1e-9)
	assert.True(t, b.TemplateFound)
	assert.InDelta(t, b.TemplateScore+b.RuleScore+b.SelectorScore, b.OverallScore, 1e-4)
}

func TestValidationService_Score_ViolationsAndDeprecatedSelector(t *testing.T) {
	env := newTestEnv()

	res, err := env.validation.Score(context.Background(), ScoreRequest{
		BrandID:  env.brand.ID,
		TestType: models.TestTypePDP,
		Code:     "document.querySelector('.legacy-cta');\neval(payload);",
	})
	require.NoError(t, err)

	b := res.Breakdown
	assert.False(t, b.IsValid)
	assert.Equal(t, models.ValidationFailed, b.ValidationStatus)
	assert.Equal(t, models.RecommendNeedsFixes, b.Recommendation)
	assert.Equal(t, []string{".legacy-cta"}, b.InvalidSelectors)
	assert.Len(t, b.RuleViolations, 1)
	assert.InDelta(t, 0.4*(1-9.0/12.0), b.RuleScore, 1e-4)
	assert.InDelta(t, 0.0, b.SelectorScore, 1e-9)
}

func TestValidationService_Score_InputErrors(t *testing.T) {
	env := newTestEnv()
	inactive := &models.Brand{ID: uuid.New(), Name: "Old", Status: models.BrandStatusInactive}
	env.brands.brands[inactive.ID] = inactive

	tests := []struct {
		name      string
		req       ScoreRequest
		wantField string
	}{
		{"empty code", ScoreRequest{BrandID: env.brand.ID, TestType: models.TestTypePDP, Code: "  \n"}, "code"},
		{"unknown test type", ScoreRequest{BrandID: env.brand.ID, TestType: "banner", Code: "x();"}, "test_type"},
		{"missing brand context", ScoreRequest{TestType: models.TestTypePDP, Code: "x();"}, "brand_id"},
		{"unknown brand", ScoreRequest{BrandID: uuid.New(), TestType: models.TestTypePDP, Code: "x();"}, "brand_id"},
		{"inactive brand", ScoreRequest{BrandID: inactive.ID, TestType: models.TestTypePDP, Code: "x();"}, "brand_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.validation.Score(context.Background(), tt.req)

			var inputErr *validation.ValidationInputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.wantField, inputErr.Field)
		})
	}
}

func TestValidationService_Score_InputCheckedBeforeLookups(t *testing.T) {
	env := newTestEnv()
	env.brands.err = errors.New("database down")

	_, err := env.validation.Score(context.Background(), ScoreRequest{BrandID: env.brand.ID, TestType: models.TestTypePDP})

	var inputErr *validation.ValidationInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "code", inputErr.Field)
	assert.Zero(t, env.selectors.calls)
}

func TestValidationService_Score_CatalogUnavailable(t *testing.T) {
	env := newTestEnv()
	env.selectors.err = errors.New("connection reset")

	res, err := env.validation.Score(context.Background(), ScoreRequest{
		BrandID:  env.brand.ID,
		TestType: models.TestTypePDP,
		Code:     validPDPCode,
	})
	require.NoError(t, err)

	b := res.Breakdown
	assert.True(t, b.SelectorsUnvalidated)
	assert.InDelta(t, 0.15, b.SelectorScore, 1e-9)
	assert.Empty(t, b.InvalidSelectors)
	assert.NotEqual(t, models.RecommendSafeToUse, b.Recommendation)
}

func TestValidationService_Score_RuleLookupFailure(t *testing.T) {
	env := newTestEnv()
	env.rules.err = errors.New("timeout")

	_, err := env.validation.Score(context.Background(), ScoreRequest{
		BrandID:  env.brand.ID,
		TestType: models.TestTypePDP,
		Code:     validPDPCode,
	})
	require.Error(t, err)

	var inputErr *validation.ValidationInputError
	assert.False(t, errors.As(err, &inputErr))
}

func TestValidationService_Score_PageTypeFromMetadata(t *testing.T) {
	env := newTestEnv()

	res, err := env.validation.Score(context.Background(), ScoreRequest{
		BrandID:         env.brand.ID,
		TestType:        models.TestTypePDP,
		Code:            "document.querySelector('.cart-total').textContent = 'x';",
		RequestMetadata: map[string]any{"page_type": models.PageTypeCart},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PageTypeCart, res.PageType)
	assert.Empty(t, res.Breakdown.InvalidSelectors)
}

func TestResolvePageType(t *testing.T) {
	tests := []struct {
		name     string
		testType string
		metadata map[string]any
		want     string
	}{
		{"defaults to test type", models.TestTypePDP, nil, models.PageTypePDP},
		{"metadata override", models.TestTypePDP, map[string]any{"page_type": "search"}, models.PageTypeSearch},
		{"unknown override ignored", models.TestTypeCart, map[string]any{"page_type": "blog"}, models.PageTypeCart},
		{"non-string override ignored", models.TestTypeHome, map[string]any{"page_type": 3}, models.PageTypeHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePageType(tt.testType, tt.metadata))
		})
	}
}
