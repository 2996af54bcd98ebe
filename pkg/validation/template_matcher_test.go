package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

const pdpTemplate = `// @setup
function initVariant() {
  const promoBanner = document.querySelector('.promo');
}
// @apply
function applyVariant() {}
`

func tmpl(code string) *models.Template {
	return &models.Template{TestType: models.TestTypePDP, TemplateCode: code, IsActive: true, Version: "1.0"}
}

func TestMatchTemplate_NoTemplateIsNeutral(t *testing.T) {
	result := MatchTemplate("run();", nil, models.TestTypeCart)

	assert.Equal(t, 0.15, result.Score)
	assert.False(t, result.Found)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], `"cart"`)
}

func TestMatchTemplate_IdenticalCodeScoresFull(t *testing.T) {
	result := MatchTemplate(pdpTemplate, tmpl(pdpTemplate), models.TestTypePDP)

	assert.True(t, result.Found)
	assert.Equal(t, 1.0, result.Ratio)
	assert.Equal(t, models.TemplateWeight, result.Score)
	assert.Empty(t, result.Notes)
}

func TestMatchTemplate_PartialStructure(t *testing.T) {
	code := `function initVariant() { const promo_banner = 1; }
function applyVariant() {}`

	result := MatchTemplate(code, tmpl(pdpTemplate), models.TestTypePDP)

	// markers 0/2, identifiers 2/3, naming conformity 2/3
	assert.InDelta(t, 4.0/9.0, result.Ratio, 1e-9)
	assert.Equal(t, 0.1333, result.Score)
}

func TestMatchTemplate_BlockMarkers(t *testing.T) {
	template := "/* @init */\nrun();\n/* @cleanup */\n"
	code := "/* @init */\nrunOther();\n"

	result := MatchTemplate(code, tmpl(template), models.TestTypePDP)

	assert.InDelta(t, 0.5, result.Ratio, 1e-9)
	assert.Equal(t, 0.15, result.Score)
}

func TestMatchTemplate_TokenOverlapFallback(t *testing.T) {
	template := "document.body.classList.add('variant-active');"
	code := "document.body.classList.add('other');"

	result := MatchTemplate(code, tmpl(template), models.TestTypePDP)

	// document, body, classList of document, body, classList, variant, active
	assert.InDelta(t, 0.6, result.Ratio, 1e-9)
	assert.Equal(t, 0.18, result.Score)
}

func TestMatchTemplate_EmptyTemplateScoresZero(t *testing.T) {
	result := MatchTemplate("run();", tmpl("   "), models.TestTypePDP)

	assert.True(t, result.Found)
	assert.Equal(t, 0.0, result.Score)
}

func TestMatchTemplate_ScoreAlwaysInRange(t *testing.T) {
	codes := []string{"", "x", pdpTemplate, "function Foo() {} const BAR_BAZ = 1;", "// @setup\n// @apply\n"}
	templates := []*models.Template{nil, tmpl(""), tmpl(pdpTemplate), tmpl("const a_b = 1; const c_d = 2;")}

	for _, c := range codes {
		for _, tp := range templates {
			result := MatchTemplate(c, tp, models.TestTypePDP)
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, models.TemplateWeight)
		}
	}
}

func TestDominantStyle(t *testing.T) {
	tests := []struct {
		name   string
		idents []string
		want   namingStyle
	}{
		{"camel", []string{"initVariant", "applyChange", "run"}, styleCamel},
		{"snake", []string{"init_variant", "apply_change", "initVariant"}, styleSnake},
		{"pascal", []string{"Variant", "BannerView"}, stylePascal},
		{"no signal", []string{"run", "init", "MAX_ITEMS"}, styleNone},
		{"empty", nil, styleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dominantStyle(tt.idents))
		})
	}
}
