// score-snippet scores a JavaScript snippet against a brand catalog file
// without a database, for trying out rules and templates locally or in CI.
//
// Usage: go run ./scripts/score-snippet -catalog brand.yaml -test-type pdp [snippet.js]
//
// The snippet is read from the file argument, or stdin when none is given.
// The confidence breakdown is printed as JSON.
//
// Flags:
//
//	-catalog    YAML file with rules, selectors, and templates (required)
//	-test-type  pdp, cart, checkout, home, or category (required)
//	-metadata   request metadata as a JSON object
//	-fail-on    exit 1 when the recommendation is at or below this level (default: needs_fixes)
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

type output struct {
	Brand     string                      `json:"brand,omitempty"`
	PageType  string                      `json:"page_type"`
	Breakdown *models.ConfidenceBreakdown `json:"confidence_breakdown"`
}

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog file")
	testType := flag.String("test-type", "", "Test type of the snippet")
	metadataJSON := flag.String("metadata", "", "Request metadata as a JSON object")
	failOn := flag.String("fail-on", string(models.RecommendNeedsFixes), "Exit 1 at or below this recommendation (none to disable)")
	flag.Parse()

	if *catalogPath == "" || *testType == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -catalog brand.yaml -test-type pdp [snippet.js]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(2)
	}

	code, err := readSnippet(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read snippet: %v\n", err)
		os.Exit(2)
	}

	var metadata map[string]any
	if *metadataJSON != "" {
		if err := json.Unmarshal([]byte(*metadataJSON), &metadata); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -metadata: %v\n", err)
			os.Exit(2)
		}
	}

	pageType := services.ResolvePageType(*testType, metadata)
	breakdown, err := validation.Evaluate(catalog.Input(code, *testType, pageType, metadata))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot score snippet: %v\n", err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{Brand: catalog.Brand, PageType: pageType, Breakdown: breakdown}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(2)
	}

	if failsThreshold(breakdown.Recommendation, models.Recommendation(*failOn)) {
		os.Exit(1)
	}
}

func readSnippet(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

// failsThreshold reports whether got is at or below threshold.
// Recommendations order needs_fixes < review_carefully < safe_to_use.
func failsThreshold(got, threshold models.Recommendation) bool {
	rank := map[models.Recommendation]int{
		models.RecommendNeedsFixes:      1,
		models.RecommendReviewCarefully: 2,
		models.RecommendSafeToUse:       3,
	}
	limit, ok := rank[threshold]
	if !ok {
		return false
	}
	return rank[got] <= limit
}
