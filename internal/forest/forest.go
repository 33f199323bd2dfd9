// Package forest provides the default random forest implementation behind
// the pipeline's Classifier and Regressor capabilities. Alternative
// implementations (gradient boosting, a remote model server) can be
// substituted without touching the hurdle estimator.
package forest

import "math"

// Classifier fits a binary outcome and estimates class probability.
type Classifier interface {
	Fit(x [][]float64, y []bool) error
	Proba(x []float64) float64
}

// Regressor fits a continuous response.
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) float64
}

// Config holds the forest hyperparameters. Zero values select defaults.
type Config struct {
	Trees              int    // number of trees, default 500
	MinLeaf            int    // minimum records per leaf, default 5
	MaxDepth           int    // maximum depth, 0 for unlimited
	MTry               int    // features tried per split, 0 for sqrt(p) / p/3
	MaxSplitCandidates int    // candidate thresholds per feature, 0 for all
	Seed               uint64 // RNG seed; all randomness derives from it
}

func (c Config) withDefaults() Config {
	if c.Trees <= 0 {
		c.Trees = 500
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 5
	}
	return c
}

// mtryDefault returns the conventional per-split feature count.
func (c Config) mtryDefault(p int, classification bool) int {
	if c.MTry > 0 {
		return min(c.MTry, p)
	}
	var m int
	if classification {
		m = int(math.Sqrt(float64(p)))
	} else {
		m = p / 3
	}
	return max(1, min(m, p))
}
