package metrics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/ebird-abundance/internal/metrics"
)

func TestMSE(t *testing.T) {
	assert.InDelta(t, 0.0, metrics.MSE([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 1.0, metrics.MSE([]float64{0, 0}, []float64{1, -1}), 1e-12)
	assert.True(t, math.IsNaN(metrics.MSE(nil, nil)))
}

func TestSpearman(t *testing.T) {
	t.Run("perfect monotone relation", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5}
		y := []float64{2, 4, 9, 16, 100} // nonlinear but monotone
		assert.InDelta(t, 1.0, metrics.Spearman(x, y), 1e-12)
	})

	t.Run("reversed", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{4, 3, 2, 1}
		assert.InDelta(t, -1.0, metrics.Spearman(x, y), 1e-12)
	})

	t.Run("ties share average ranks", func(t *testing.T) {
		x := []float64{1, 2, 2, 3}
		y := []float64{1, 2, 2, 3}
		assert.InDelta(t, 1.0, metrics.Spearman(x, y), 1e-12)
	})
}

func TestLogPearson(t *testing.T) {
	x := []float64{0, 1, 3, 7, 15}
	y := []float64{0, 1, 3, 7, 15}
	assert.InDelta(t, 1.0, metrics.LogPearson(x, y), 1e-12)
}

func TestConfusionDerivedMeasures(t *testing.T) {
	observed := []bool{true, true, true, true, false, false, false, false, false, false}
	predicted := []bool{true, true, true, false, false, false, false, false, true, true}

	c := metrics.NewConfusion(observed, predicted)
	assert.Equal(t, metrics.Confusion{TP: 3, FP: 2, TN: 4, FN: 1}, c)

	assert.InDelta(t, 0.75, c.Sensitivity(), 1e-12)
	assert.InDelta(t, 4.0/6.0, c.Specificity(), 1e-12)
	assert.InDelta(t, 0.6, c.Precision(), 1e-12)
	assert.InDelta(t, 2.0/3.0, c.F1(), 1e-12)

	// po = 0.7, pe = 0.5*0.4 + 0.5*0.6 = 0.5
	assert.InDelta(t, 0.4, c.Kappa(), 1e-12)
	// (3*4 - 2*1) / sqrt(5*4*6*5) = 10/sqrt(600)
	assert.InDelta(t, 10/math.Sqrt(600), c.MCC(), 1e-12)
}

func TestConfusionDegenerate(t *testing.T) {
	c := metrics.NewConfusion([]bool{false, false}, []bool{false, false})
	assert.True(t, math.IsNaN(c.Sensitivity()))
	assert.True(t, math.IsNaN(c.MCC()))
}

func TestPRAUC(t *testing.T) {
	t.Run("perfect ranking", func(t *testing.T) {
		observed := []bool{true, true, false, false}
		probs := []float64{0.9, 0.8, 0.2, 0.1}
		assert.InDelta(t, 1.0, metrics.PRAUC(observed, probs), 1e-12)
	})

	t.Run("worst ranking", func(t *testing.T) {
		observed := []bool{true, false, false, false}
		probs := []float64{0.1, 0.9, 0.8, 0.7}
		// the single positive is found last: precision 1/4
		assert.InDelta(t, 0.25, metrics.PRAUC(observed, probs), 1e-12)
	})

	t.Run("no positives", func(t *testing.T) {
		assert.True(t, math.IsNaN(metrics.PRAUC([]bool{false}, []float64{0.5})))
	})
}
