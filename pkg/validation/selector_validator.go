package validation

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// SelectorCatalog is the brand's selector catalog for one page type.
// Err is set when the catalog could not be loaded.
type SelectorCatalog struct {
	PageType  string
	Selectors []models.DOMSelector
	Err       error
}

// SelectorResult is the outcome of one SelectorValidator pass.
type SelectorResult struct {
	Used         []string
	Invalid      []string
	UserProvided []string
	Unvalidated  bool
	Score        float64
	Reasons      []string
}

// ValidateSelectors extracts the selectors code touches and classifies each
// against the catalog. Only active entries are known-valid. An invalid
// selector that also appears verbatim in the request metadata is flagged as
// user provided. When the catalog is unavailable and there is something to
// validate, the score falls back to the neutral value and Unvalidated is set.
func ValidateSelectors(code string, catalog SelectorCatalog, metadata map[string]any) SelectorResult {
	result := SelectorResult{
		Used:    ExtractSelectors(code),
		Invalid: []string{},
	}

	if len(result.Used) == 0 {
		result.Score = models.SelectorWeight
		return result
	}

	if catalog.Err != nil {
		result.Unvalidated = true
		result.Score = round4(models.SelectorWeight * NeutralFactor)
		return result
	}

	status := make(map[string]string, len(catalog.Selectors))
	for _, sel := range catalog.Selectors {
		if catalog.PageType != "" && sel.PageType != catalog.PageType {
			continue
		}
		key := NormalizeSelector(sel.SelectorString)
		// An active entry wins over stale duplicates of the same selector.
		if status[key] != models.SelectorStatusActive {
			status[key] = sel.Status
		}
	}

	metadataText := collectStrings(metadata)
	valid := 0
	for _, sel := range result.Used {
		st, known := status[NormalizeSelector(sel)]
		if known && st == models.SelectorStatusActive {
			valid++
			continue
		}

		result.Invalid = append(result.Invalid, sel)
		if known {
			result.Reasons = append(result.Reasons, fmt.Sprintf("selector %q is %s", sel, st))
		} else {
			result.Reasons = append(result.Reasons, fmt.Sprintf("selector %q is not in the %s catalog", sel, pageTypeLabel(catalog.PageType)))
		}
		if appearsIn(sel, metadataText) {
			result.UserProvided = append(result.UserProvided, sel)
		}
	}

	result.Score = round4(models.SelectorWeight * float64(valid) / float64(len(result.Used)))
	return result
}

func pageTypeLabel(pageType string) string {
	if pageType == "" {
		return "brand"
	}
	return pageType
}

func appearsIn(sel string, texts []string) bool {
	for _, t := range texts {
		if strings.Contains(t, sel) {
			return true
		}
	}
	return false
}

// collectStrings returns every string value reachable in v.
func collectStrings(v any) []string {
	var out []string
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case []string:
			out = append(out, t...)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			for _, item := range t {
				walk(item)
			}
		case map[string]string:
			for _, item := range t {
				out = append(out, item)
			}
		}
	}
	walk(v)
	return out
}
