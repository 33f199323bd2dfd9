package calibration_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/calibration"
	"github.com/tphakala/ebird-abundance/internal/errors"
)

func TestFitProducesMonotoneCurve(t *testing.T) {
	// Overconfident predictions: observed frequency rises with predicted
	// probability but more slowly.
	rng := rand.New(rand.NewPCG(13, 0))
	var predicted []float64
	var observed []bool
	for range 500 {
		p := rng.Float64()
		predicted = append(predicted, p)
		observed = append(observed, rng.Float64() < 0.5*p)
	}

	curve, err := calibration.Fit(predicted, observed)
	require.NoError(t, err)
	require.NoError(t, curve.Validate())

	// Non-decreasing over a dense monotone grid of inputs
	prev := curve.Apply(0)
	for i := 1; i <= 100; i++ {
		p := float64(i) / 100
		cur := curve.Apply(p)
		assert.GreaterOrEqual(t, cur, prev, "calibration decreased at %g", p)
		prev = cur
	}

	// Roughly recovers the halved frequency in the middle of the domain
	assert.InDelta(t, 0.3, curve.Apply(0.6), 0.12)
}

func TestApplyClampsToUnitInterval(t *testing.T) {
	curve, err := calibration.Fit(
		[]float64{0.1, 0.4, 0.6, 0.9},
		[]bool{false, false, true, true},
	)
	require.NoError(t, err)

	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		got := curve.Apply(p)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
	// Extreme raw inputs take endpoint values
	assert.InDelta(t, curve.Apply(0), curve.Apply(0.0001), 1e-6)
	assert.InDelta(t, curve.Apply(1), curve.Apply(0.9999), 1e-6)
}

func TestFitPoolsViolators(t *testing.T) {
	// A locally decreasing observed sequence must be pooled, not preserved.
	predicted := []float64{0.1, 0.2, 0.3, 0.4}
	observed := []bool{false, true, false, true}

	curve, err := calibration.Fit(predicted, observed)
	require.NoError(t, err)

	x, y := curve.Knots()
	require.Equal(t, len(x), len(y))
	for i := 1; i < len(y); i++ {
		assert.GreaterOrEqual(t, y[i], y[i-1])
	}
	// 0.2 and 0.3 pool to a single half-and-half knot
	assert.InDelta(t, 0.5, curve.Apply(0.25), 1e-9)
}

func TestFitAveragesTiedProbabilities(t *testing.T) {
	// The value at a tied raw probability is its observed frequency, no
	// matter which order the tied pairs arrive in.
	t.Run("order independent", func(t *testing.T) {
		forward, err := calibration.Fit([]float64{0.5, 0.5}, []bool{false, true})
		require.NoError(t, err)
		reversed, err := calibration.Fit([]float64{0.5, 0.5}, []bool{true, false})
		require.NoError(t, err)

		assert.InDelta(t, 0.5, forward.Apply(0.5), 1e-9)
		assert.InDelta(t, 0.5, reversed.Apply(0.5), 1e-9)
	})

	// Unanimous forests put many probabilities exactly on 0 and 1.
	t.Run("ties at the endpoints", func(t *testing.T) {
		predicted := []float64{0, 0, 0, 0, 1, 1, 1, 1}
		observed := []bool{false, false, false, true, true, true, true, false}

		curve, err := calibration.Fit(predicted, observed)
		require.NoError(t, err)

		assert.InDelta(t, 0.25, curve.Apply(0), 1e-9)
		assert.InDelta(t, 0.75, curve.Apply(1), 1e-9)
		assert.InDelta(t, 0.5, curve.Apply(0.5), 1e-9)
	})
}

func TestFitRejectsBadInput(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := calibration.Fit(nil, nil)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := calibration.Fit([]float64{0.5}, []bool{true, false})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("probability out of range", func(t *testing.T) {
		_, err := calibration.Fit([]float64{1.5}, []bool{true})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestPerfectlyCalibratedInputIsNearIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(29, 0))
	var predicted []float64
	var observed []bool
	for range 4000 {
		p := rng.Float64()
		predicted = append(predicted, p)
		observed = append(observed, rng.Float64() < p)
	}

	curve, err := calibration.Fit(predicted, observed)
	require.NoError(t, err)

	for _, p := range []float64{0.2, 0.5, 0.8} {
		assert.InDelta(t, p, curve.Apply(p), 0.08)
	}
}
