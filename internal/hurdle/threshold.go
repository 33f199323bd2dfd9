package hurdle

import (
	"math"
	"sort"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/metrics"
)

// selectThreshold walks the MCC-F1 trade-off curve over the observed
// probabilities and returns the cutoff closest to the ideal point where
// both unit-normalized MCC and F1 equal one. Candidates are the sorted
// unique probabilities themselves, so the induced presence/absence
// partition depends only on rank order. Ties take the smallest threshold,
// favoring sensitivity.
func selectThreshold(probabilities []float64, observed []bool) (float64, error) {
	if len(probabilities) == 0 || len(probabilities) != len(observed) {
		return 0, errors.InvalidInputError(
			"threshold selection requires matching non-empty probabilities and flags, got %d/%d",
			len(probabilities), len(observed))
	}

	candidates := uniqueSorted(probabilities)

	bestThreshold := math.NaN()
	bestDistance := math.Inf(1)

	calls := make([]bool, len(probabilities))
	for _, tau := range candidates {
		for i, p := range probabilities {
			calls[i] = p > tau
		}
		c := metrics.NewConfusion(observed, calls)
		mcc := c.MCC()
		f1 := c.F1()
		if math.IsNaN(mcc) || math.IsNaN(f1) {
			continue
		}

		normMCC := (mcc + 1) / 2
		d := math.Hypot(1-normMCC, 1-f1)
		// Strict < keeps the first (lowest) candidate among exact ties
		if d < bestDistance {
			bestDistance = d
			bestThreshold = tau
		}
	}

	if math.IsNaN(bestThreshold) {
		return 0, errors.InsufficientDataError(
			"no probability cutoff yields a defined MCC-F1 point; training classes may be degenerate")
	}
	return bestThreshold, nil
}

func uniqueSorted(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	sort.Float64s(out)
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}
