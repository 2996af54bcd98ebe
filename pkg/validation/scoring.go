package validation

import "math"

// Recommendation thresholds. Fixed so recommendations stay comparable across brands.
const (
	SafeToUseThreshold  = 0.8
	NeedsFixesThreshold = 0.6

	// FailingPriority is the lowest violation priority that fails validation outright.
	FailingPriority = 8
)

// NeutralFactor scales a sub-score weight when the evidence for it is missing.
const NeutralFactor = 0.5

// round4 rounds to 4 decimal places so sums of sub-scores stay exact in decimal terms.
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
