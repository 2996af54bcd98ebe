package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

var (
	lineMarkerPattern  = regexp.MustCompile(`(?m)^\s*//\s*@([\w-]+)`)
	blockMarkerPattern = regexp.MustCompile(`/\*\s*@([\w-]+)\s*\*/`)
	funcDeclPattern    = regexp.MustCompile(`\bfunction\s+([A-Za-z_$][\w$]*)\s*\(`)
	bindingDeclPattern = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=`)
	identTokenPattern  = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
	wordTokenPattern   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]{3,}`)

	camelCasePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(?:[A-Z][a-z0-9]*)+$`)
	snakeCasePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(?:_[a-z0-9]+)+$`)
	pascalCasePattern = regexp.MustCompile(`^[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]*)*$`)
	lowerWordPattern  = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
	constCasePattern  = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

type namingStyle string

const (
	styleNone   namingStyle = ""
	styleCamel  namingStyle = "camelCase"
	styleSnake  namingStyle = "snake_case"
	stylePascal namingStyle = "PascalCase"
)

// TemplateResult is the outcome of one TemplateMatcher pass.
type TemplateResult struct {
	Score float64
	Ratio float64
	Found bool
	Notes []string
}

// MatchTemplate scores how closely code follows the brand's active template
// for testType. A nil template yields the neutral score and a note.
func MatchTemplate(code string, template *models.Template, testType string) TemplateResult {
	if template == nil {
		return TemplateResult{
			Score: round4(models.TemplateWeight * NeutralFactor),
			Ratio: NeutralFactor,
			Notes: []string{fmt.Sprintf("no active template for test type %q; neutral template score applied", testType)},
		}
	}

	ratio := structuralSimilarity(code, template.TemplateCode)
	return TemplateResult{
		Score: round4(models.TemplateWeight * ratio),
		Ratio: ratio,
		Found: true,
	}
}

// structuralSimilarity averages marker coverage, identifier coverage, and
// naming conformity, using whichever of them the template defines. With none
// defined it falls back to word-token overlap.
func structuralSimilarity(code, tmpl string) float64 {
	if strings.TrimSpace(tmpl) == "" {
		return 0
	}

	var parts []float64

	if markers := sectionMarkers(tmpl); len(markers) > 0 {
		parts = append(parts, coverage(markers, toSet(sectionMarkers(code))))
	}

	tmplIdents := declaredIdentifiers(tmpl)
	codeIdents := declaredIdentifiers(code)
	if len(tmplIdents) > 0 {
		parts = append(parts, coverage(tmplIdents, toSet(identTokenPattern.FindAllString(code, -1))))
	}

	if style := dominantStyle(tmplIdents); style != styleNone && len(codeIdents) > 0 {
		parts = append(parts, conformity(codeIdents, style))
	}

	if len(parts) == 0 {
		return coverage(unique(wordTokenPattern.FindAllString(tmpl, -1)), toSet(wordTokenPattern.FindAllString(code, -1)))
	}

	sum := 0.0
	for _, p := range parts {
		sum += p
	}
	return clamp(sum/float64(len(parts)), 0, 1)
}

func sectionMarkers(code string) []string {
	var out []string
	for _, m := range lineMarkerPattern.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	for _, m := range blockMarkerPattern.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	return unique(out)
}

func declaredIdentifiers(code string) []string {
	var out []string
	for _, m := range funcDeclPattern.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	for _, m := range bindingDeclPattern.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	return unique(out)
}

// dominantStyle returns the most common distinguishing style among idents.
// Single lowercase words and CONSTANT_CASE names carry no style signal.
func dominantStyle(idents []string) namingStyle {
	counts := map[namingStyle]int{}
	for _, id := range idents {
		if s := styleOf(id); s != styleNone {
			counts[s]++
		}
	}
	best := styleNone
	for _, s := range []namingStyle{styleCamel, styleSnake, stylePascal} {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

func styleOf(id string) namingStyle {
	switch {
	case camelCasePattern.MatchString(id):
		return styleCamel
	case snakeCasePattern.MatchString(id):
		return styleSnake
	case pascalCasePattern.MatchString(id):
		return stylePascal
	default:
		return styleNone
	}
}

func conformity(idents []string, style namingStyle) float64 {
	ok := 0
	for _, id := range idents {
		if lowerWordPattern.MatchString(id) || constCasePattern.MatchString(id) || styleOf(id) == style {
			ok++
		}
	}
	return float64(ok) / float64(len(idents))
}

// coverage is the share of want present in have.
func coverage(want []string, have map[string]bool) float64 {
	if len(want) == 0 {
		return 0
	}
	found := 0
	for _, w := range want {
		if have[w] {
			found++
		}
	}
	return float64(found) / float64(len(want))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, i := range items {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
