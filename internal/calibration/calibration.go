// Package calibration aligns raw classifier probabilities with observed
// encounter frequencies using isotonic regression, so a calibrated 0.2
// means the species was found on about a fifth of comparable checklists.
package calibration

import (
	"sort"

	"github.com/tphakala/ebird-abundance/internal/errors"
)

// Curve is a fitted monotone mapping from raw to calibrated probability.
// Immutable once fitted; safe for concurrent Apply.
type Curve struct {
	x []float64 // knot raw probabilities, strictly increasing
	y []float64 // calibrated values, non-decreasing
}

// Fit estimates the calibration curve from raw predicted probabilities and
// the observed detection flags via pool-adjacent-violators. The fitted
// curve is validated non-decreasing before it is returned; a violation is
// an error, never silently repaired.
func Fit(predicted []float64, observed []bool) (*Curve, error) {
	if len(predicted) == 0 || len(predicted) != len(observed) {
		return nil, errors.InvalidInputError(
			"calibration fit requires matching non-empty probabilities and flags, got %d/%d",
			len(predicted), len(observed))
	}

	type pair struct {
		p float64
		y float64
	}
	pairs := make([]pair, len(predicted))
	for i, p := range predicted {
		if p < 0 || p > 1 {
			return nil, errors.InvalidInputError("predicted probability %g outside [0,1]", p)
		}
		pairs[i] = pair{p: p}
		if observed[i] {
			pairs[i].y = 1
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].p < pairs[b].p })

	// Tied raw probabilities pool into one weighted point first, so the
	// value at a tie is its observed frequency regardless of input order.
	// Ties are routine: out-of-bag probabilities hit exactly 0 and 1
	// whenever every voting tree agrees.
	type block struct {
		sumP   float64
		sumY   float64
		weight float64
	}
	pooled := make([]block, 0, len(pairs))
	for i, pr := range pairs {
		if i > 0 && pr.p == pairs[i-1].p {
			last := len(pooled) - 1
			pooled[last].sumP += pr.p
			pooled[last].sumY += pr.y
			pooled[last].weight++
			continue
		}
		pooled = append(pooled, block{sumP: pr.p, sumY: pr.y, weight: 1})
	}

	// Pool adjacent violators: merge neighboring blocks until the block
	// means are non-decreasing.
	blocks := make([]block, 0, len(pooled))
	for _, pl := range pooled {
		blocks = append(blocks, pl)
		for len(blocks) > 1 {
			last := len(blocks) - 1
			prev := last - 1
			if blocks[prev].sumY/blocks[prev].weight <= blocks[last].sumY/blocks[last].weight {
				break
			}
			blocks[prev].sumP += blocks[last].sumP
			blocks[prev].sumY += blocks[last].sumY
			blocks[prev].weight += blocks[last].weight
			blocks = blocks[:last]
		}
	}

	curve := &Curve{
		x: make([]float64, 0, len(blocks)),
		y: make([]float64, 0, len(blocks)),
	}
	// Pre-pooling leaves block means strictly increasing: every raw
	// probability belongs to exactly one block, so adjacent means cannot
	// coincide and no knot dedup is needed.
	for _, bl := range blocks {
		curve.x = append(curve.x, bl.sumP/bl.weight)
		curve.y = append(curve.y, bl.sumY/bl.weight)
	}

	if err := curve.Validate(); err != nil {
		return nil, err
	}
	return curve, nil
}

// Validate checks the hard monotonicity constraint on the fitted knots.
func (c *Curve) Validate() error {
	if len(c.x) == 0 {
		return errors.CalibrationViolationError("calibration curve has no knots")
	}
	for i := 1; i < len(c.x); i++ {
		if c.x[i] <= c.x[i-1] {
			return errors.CalibrationViolationError(
				"calibration knots not strictly increasing at %d (%g after %g)", i, c.x[i], c.x[i-1])
		}
		if c.y[i] < c.y[i-1] {
			return errors.CalibrationViolationError(
				"calibration curve decreases at knot %d (%g after %g)", i, c.y[i], c.y[i-1])
		}
	}
	return nil
}

// Apply maps a raw probability through the curve with linear interpolation
// between knots. Output is clamped to [0, 1]; inputs outside the fitted
// domain take the nearest endpoint value.
func (c *Curve) Apply(p float64) float64 {
	n := len(c.x)
	switch {
	case n == 0:
		return clamp01(p)
	case p <= c.x[0]:
		return clamp01(c.y[0])
	case p >= c.x[n-1]:
		return clamp01(c.y[n-1])
	}

	i := sort.SearchFloat64s(c.x, p)
	// p lies strictly between x[i-1] and x[i]
	x0, x1 := c.x[i-1], c.x[i]
	y0, y1 := c.y[i-1], c.y[i]
	t := (p - x0) / (x1 - x0)
	return clamp01(y0 + t*(y1-y0))
}

// Knots returns copies of the fitted knot positions and values.
func (c *Curve) Knots() (x, y []float64) {
	x = make([]float64, len(c.x))
	y = make([]float64, len(c.y))
	copy(x, c.x)
	copy(y, c.y)
	return x, y
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
