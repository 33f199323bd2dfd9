package forest

import (
	"math/rand/v2"

	"github.com/tphakala/ebird-abundance/internal/errors"
)

// RegressionForest is a random forest regressor for a continuous
// non-negative response such as a count.
type RegressionForest struct {
	cfg        Config
	trees      []*tree
	importance []float64
	nFeatures  int
	fitted     bool
}

// NewRegressionForest returns an unfitted regressor with the given
// hyperparameters.
func NewRegressionForest(cfg Config) *RegressionForest {
	return &RegressionForest{cfg: cfg.withDefaults()}
}

// Fit trains the forest on a standard bootstrap of the training rows.
func (f *RegressionForest) Fit(x [][]float64, y []float64) error {
	if len(x) != len(y) {
		return errors.InvalidInputError("regressor fit requires matching features and responses, got %d/%d", len(x), len(y))
	}
	if len(x) == 0 {
		return errors.InsufficientDataError("regressor fit received an empty training subset")
	}

	n := len(x)
	p := len(x[0])
	mtry := f.cfg.mtryDefault(p, false)

	f.trees = make([]*tree, 0, f.cfg.Trees)
	f.importance = make([]float64, p)

	for t := range f.cfg.Trees {
		rng := rand.New(rand.NewPCG(f.cfg.Seed, uint64(t)+1))

		bag := make([]int, n)
		for i := range bag {
			bag[i] = rng.IntN(n)
		}

		builder := newTreeBuilder(x, y, f.cfg, mtry, rng)
		f.trees = append(f.trees, builder.grow(bag))
		for j := range f.importance {
			f.importance[j] += builder.importance[j]
		}
	}

	f.nFeatures = p
	f.fitted = true
	return nil
}

// Predict returns the forest mean response for one feature vector.
func (f *RegressionForest) Predict(x []float64) float64 {
	var sum float64
	for _, tr := range f.trees {
		sum += tr.predict(x)
	}
	return sum / float64(len(f.trees))
}

// FeatureImportance returns mean-impurity-decrease importances normalized
// to sum to one.
func (f *RegressionForest) FeatureImportance() []float64 {
	return normalizeImportance(f.importance)
}

// Fitted reports whether Fit has completed successfully.
func (f *RegressionForest) Fitted() bool {
	return f.fitted
}
