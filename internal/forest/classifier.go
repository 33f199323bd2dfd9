package forest

import (
	"math"
	"math/rand/v2"

	"github.com/tphakala/ebird-abundance/internal/errors"
)

// ProbabilityForest is a random forest classifier for a binary outcome.
// Probability estimates are the mean of per-tree leaf frequencies, never
// hard votes.
type ProbabilityForest struct {
	// Balanced enables the case-controlled bootstrap: each tree samples
	// round(prevalence*n) records with replacement from each class, so
	// every tree trains on a 1:1 class mix.
	Balanced bool

	cfg        Config
	trees      []*tree
	importance []float64
	oob        []float64
	nFeatures  int
	fitted     bool
}

// NewProbabilityForest returns an unfitted classifier with the given
// hyperparameters.
func NewProbabilityForest(cfg Config) *ProbabilityForest {
	return &ProbabilityForest{cfg: cfg.withDefaults()}
}

// Fit trains the forest. It fails with an insufficient-data error unless
// both classes are present.
func (f *ProbabilityForest) Fit(x [][]float64, y []bool) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.InvalidInputError("classifier fit requires matching non-empty features and labels, got %d/%d", len(x), len(y))
	}

	var positives, negatives []int
	for i, label := range y {
		if label {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}
	if len(positives) == 0 || len(negatives) == 0 {
		return errors.InsufficientDataError(
			"classifier fit requires both classes, got %d detections and %d non-detections",
			len(positives), len(negatives))
	}

	n := len(x)
	p := len(x[0])
	target := make([]float64, n)
	for _, i := range positives {
		target[i] = 1
	}

	mtry := f.cfg.mtryDefault(p, true)
	prevalence := float64(len(positives)) / float64(n)
	perClass := max(1, int(math.Round(prevalence*float64(n))))

	f.trees = make([]*tree, 0, f.cfg.Trees)
	f.importance = make([]float64, p)
	oobSum := make([]float64, n)
	oobCount := make([]int, n)

	for t := range f.cfg.Trees {
		rng := rand.New(rand.NewPCG(f.cfg.Seed, uint64(t)+1))

		var bag []int
		if f.Balanced {
			bag = make([]int, 0, 2*perClass)
			for range perClass {
				bag = append(bag, positives[rng.IntN(len(positives))])
			}
			for range perClass {
				bag = append(bag, negatives[rng.IntN(len(negatives))])
			}
		} else {
			bag = make([]int, n)
			for i := range bag {
				bag[i] = rng.IntN(n)
			}
		}

		inBag := make([]bool, n)
		for _, i := range bag {
			inBag[i] = true
		}

		builder := newTreeBuilder(x, target, f.cfg, mtry, rng)
		tr := builder.grow(bag)
		f.trees = append(f.trees, tr)
		for j := range f.importance {
			f.importance[j] += builder.importance[j]
		}

		for i := range n {
			if !inBag[i] {
				oobSum[i] += tr.predict(x[i])
				oobCount[i]++
			}
		}
	}

	f.nFeatures = p
	f.fitted = true

	f.oob = make([]float64, n)
	for i := range n {
		if oobCount[i] > 0 {
			f.oob[i] = clamp01(oobSum[i] / float64(oobCount[i]))
		} else {
			// Row was in-bag for every tree; fall back to the full forest
			f.oob[i] = f.Proba(x[i])
		}
	}

	return nil
}

// Proba returns the estimated probability of the positive class.
// The feature vector must follow the schema used at fit time.
func (f *ProbabilityForest) Proba(x []float64) float64 {
	var sum float64
	for _, tr := range f.trees {
		sum += tr.predict(x)
	}
	return clamp01(sum / float64(len(f.trees)))
}

// OutOfBagProba returns per-training-row probabilities estimated from
// trees that did not see the row, suitable for fitting calibration
// without in-bag optimism.
func (f *ProbabilityForest) OutOfBagProba() []float64 {
	out := make([]float64, len(f.oob))
	copy(out, f.oob)
	return out
}

// FeatureImportance returns mean-impurity-decrease importances normalized
// to sum to one.
func (f *ProbabilityForest) FeatureImportance() []float64 {
	return normalizeImportance(f.importance)
}

// Fitted reports whether Fit has completed successfully.
func (f *ProbabilityForest) Fitted() bool {
	return f.fitted
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func normalizeImportance(raw []float64) []float64 {
	out := make([]float64, len(raw))
	var total float64
	for _, v := range raw {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i, v := range raw {
		out[i] = v / total
	}
	return out
}
