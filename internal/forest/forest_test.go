package forest_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/forest"
)

func testConfig() forest.Config {
	return forest.Config{Trees: 60, MinLeaf: 2, MaxSplitCandidates: 32, Seed: 11}
}

// separable builds a two-feature dataset where the first feature fully
// determines the class and the second is noise.
func separable(n int, seed uint64) ([][]float64, []bool) {
	rng := rand.New(rand.NewPCG(seed, 0))
	x := make([][]float64, n)
	y := make([]bool, n)
	for i := range n {
		label := i%2 == 0
		v := rng.Float64() * 0.4
		if label {
			v += 0.6
		}
		x[i] = []float64{v, rng.Float64()}
		y[i] = label
	}
	return x, y
}

func TestProbabilityForestLearnsSeparableData(t *testing.T) {
	x, y := separable(200, 3)
	clf := forest.NewProbabilityForest(testConfig())
	require.NoError(t, clf.Fit(x, y))
	require.True(t, clf.Fitted())

	assert.Greater(t, clf.Proba([]float64{0.9, 0.5}), 0.8)
	assert.Less(t, clf.Proba([]float64{0.1, 0.5}), 0.2)
}

func TestProbabilityForestRequiresBothClasses(t *testing.T) {
	x := [][]float64{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	y := []bool{false, false, false}

	err := forest.NewProbabilityForest(testConfig()).Fit(x, y)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestProbabilityForestBalancedBootstrap(t *testing.T) {
	// 10% prevalence; the balanced bootstrap still has to recover the
	// positive region instead of collapsing to the majority class.
	rng := rand.New(rand.NewPCG(5, 0))
	var x [][]float64
	var y []bool
	for i := range 300 {
		label := i%10 == 0
		v := rng.Float64() * 0.4
		if label {
			v += 0.6
		}
		x = append(x, []float64{v, rng.Float64()})
		y = append(y, label)
	}

	clf := forest.NewProbabilityForest(testConfig())
	clf.Balanced = true
	require.NoError(t, clf.Fit(x, y))

	assert.Greater(t, clf.Proba([]float64{0.9, 0.5}), 0.5)
	assert.Less(t, clf.Proba([]float64{0.1, 0.5}), 0.3)
}

func TestOutOfBagProba(t *testing.T) {
	x, y := separable(120, 9)
	clf := forest.NewProbabilityForest(testConfig())
	require.NoError(t, clf.Fit(x, y))

	oob := clf.OutOfBagProba()
	require.Len(t, oob, len(x))
	for i, p := range oob {
		assert.GreaterOrEqual(t, p, 0.0, "row %d", i)
		assert.LessOrEqual(t, p, 1.0, "row %d", i)
	}
}

func TestFeatureImportanceFindsSignal(t *testing.T) {
	x, y := separable(200, 17)
	clf := forest.NewProbabilityForest(testConfig())
	require.NoError(t, clf.Fit(x, y))

	imp := clf.FeatureImportance()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1], "signal feature should dominate noise")
}

func TestRegressionForestLearnsStepFunction(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 0))
	var x [][]float64
	var y []float64
	for range 300 {
		v := rng.Float64()
		x = append(x, []float64{v, rng.Float64()})
		if v > 0.5 {
			y = append(y, 10)
		} else {
			y = append(y, 2)
		}
	}

	reg := forest.NewRegressionForest(testConfig())
	require.NoError(t, reg.Fit(x, y))
	require.True(t, reg.Fitted())

	assert.InDelta(t, 10, reg.Predict([]float64{0.9, 0.5}), 1.5)
	assert.InDelta(t, 2, reg.Predict([]float64{0.1, 0.5}), 1.5)
}

func TestRegressionForestEmptySubset(t *testing.T) {
	err := forest.NewRegressionForest(testConfig()).Fit(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestForestDeterministicUnderSeed(t *testing.T) {
	x, y := separable(150, 33)

	a := forest.NewProbabilityForest(testConfig())
	require.NoError(t, a.Fit(x, y))
	b := forest.NewProbabilityForest(testConfig())
	require.NoError(t, b.Fit(x, y))

	probe := []float64{0.42, 0.17}
	assert.InDelta(t, a.Proba(probe), b.Proba(probe), 1e-12)
}
