// Package metrics computes predictive-performance measures comparing
// held-out observations with hurdle model predictions. All functions are
// pure; degenerate inputs (empty, zero variance) yield NaN rather than an
// error so reports can render partial results.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MSE returns the mean squared error between observed and predicted.
func MSE(observed, predicted []float64) float64 {
	if len(observed) == 0 || len(observed) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range observed {
		d := observed[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(observed))
}

// Spearman returns the rank correlation between x and y, with ties
// assigned average ranks.
func Spearman(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Correlation(ranks(x), ranks(y), nil)
}

// LogPearson returns the Pearson correlation of log1p-transformed values,
// the conventional scale for right-skewed counts and abundances.
func LogPearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	lx := make([]float64, len(x))
	ly := make([]float64, len(y))
	for i := range x {
		lx[i] = math.Log1p(x[i])
		ly[i] = math.Log1p(y[i])
	}
	return stat.Correlation(lx, ly, nil)
}

// ranks returns average ranks (1-based) with ties sharing their mean rank.
func ranks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	out := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		mean := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = mean
		}
		i = j + 1
	}
	return out
}

// Confusion is a 2x2 contingency table of binarized presence calls.
type Confusion struct {
	TP int
	FP int
	TN int
	FN int
}

// NewConfusion tabulates observed detection flags against predicted calls.
func NewConfusion(observed, predicted []bool) Confusion {
	var c Confusion
	for i := range observed {
		switch {
		case observed[i] && predicted[i]:
			c.TP++
		case !observed[i] && predicted[i]:
			c.FP++
		case observed[i] && !predicted[i]:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

// Sensitivity is the true positive rate.
func (c Confusion) Sensitivity() float64 {
	return safeRatio(float64(c.TP), float64(c.TP+c.FN))
}

// Specificity is the true negative rate.
func (c Confusion) Specificity() float64 {
	return safeRatio(float64(c.TN), float64(c.TN+c.FP))
}

// Precision is the positive predictive value.
func (c Confusion) Precision() float64 {
	return safeRatio(float64(c.TP), float64(c.TP+c.FP))
}

// F1 is the harmonic mean of precision and sensitivity.
func (c Confusion) F1() float64 {
	p := c.Precision()
	r := c.Sensitivity()
	if math.IsNaN(p) || math.IsNaN(r) || p+r == 0 {
		return math.NaN()
	}
	return 2 * p * r / (p + r)
}

// Kappa is Cohen's kappa: agreement beyond chance.
func (c Confusion) Kappa() float64 {
	n := float64(c.TP + c.FP + c.TN + c.FN)
	if n == 0 {
		return math.NaN()
	}
	po := float64(c.TP+c.TN) / n
	pYes := float64(c.TP+c.FP) / n * float64(c.TP+c.FN) / n
	pNo := float64(c.TN+c.FN) / n * float64(c.TN+c.FP) / n
	pe := pYes + pNo
	if pe == 1 {
		return math.NaN()
	}
	return (po - pe) / (1 - pe)
}

// MCC is the Matthews correlation coefficient.
func (c Confusion) MCC() float64 {
	tp, fp, tn, fn := float64(c.TP), float64(c.FP), float64(c.TN), float64(c.FN)
	denom := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	if denom == 0 {
		return math.NaN()
	}
	return (tp*tn - fp*fn) / denom
}

// PRAUC returns the area under the precision-recall curve, computed as
// average precision over the ranked predictions.
func PRAUC(observed []bool, probabilities []float64) float64 {
	if len(observed) == 0 || len(observed) != len(probabilities) {
		return math.NaN()
	}

	idx := make([]int, len(observed))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probabilities[idx[a]] > probabilities[idx[b]] })

	var nPos int
	for _, o := range observed {
		if o {
			nPos++
		}
	}
	if nPos == 0 {
		return math.NaN()
	}

	var tp int
	var sum float64
	for rank, i := range idx {
		if observed[i] {
			tp++
			sum += float64(tp) / float64(rank+1)
		}
	}
	return sum / float64(nPos)
}

func safeRatio(num, denom float64) float64 {
	if denom == 0 {
		return math.NaN()
	}
	return num / denom
}
