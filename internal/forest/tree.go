package forest

import (
	"math/rand/v2"
	"sort"
)

// node is one split or leaf in a fitted tree. Leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// treeBuilder grows a single CART tree on a bootstrap sample. The split
// criterion is variance reduction; for 0/1 targets this coincides with
// Gini gain, so the same core serves classification and regression.
type treeBuilder struct {
	x          [][]float64
	y          []float64
	cfg        Config
	mtry       int
	rng        *rand.Rand
	nodes      []node
	importance []float64 // accumulated impurity decrease per feature
}

func newTreeBuilder(x [][]float64, y []float64, cfg Config, mtry int, rng *rand.Rand) *treeBuilder {
	return &treeBuilder{
		x:          x,
		y:          y,
		cfg:        cfg,
		mtry:       mtry,
		rng:        rng,
		importance: make([]float64, len(x[0])),
	}
}

func (b *treeBuilder) grow(indices []int) *tree {
	b.build(indices, 0)
	return &tree{nodes: b.nodes}
}

func sumStats(y []float64, indices []int) (sum, sumSq float64) {
	for _, i := range indices {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	return sum, sumSq
}

// build appends the subtree for indices and returns its root node index.
func (b *treeBuilder) build(indices []int, depth int) int {
	n := float64(len(indices))
	sum, sumSq := sumStats(b.y, indices)
	mean := sum / n
	sse := sumSq - sum*sum/n

	self := len(b.nodes)
	b.nodes = append(b.nodes, node{left: -1, right: -1, value: mean})

	if len(indices) < 2*b.cfg.MinLeaf || sse <= 1e-12 {
		return self
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return self
	}

	feature, threshold, gain := b.bestSplit(indices, sse)
	if feature < 0 {
		return self
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importance[feature] += gain

	b.nodes[self].feature = feature
	b.nodes[self].threshold = threshold
	b.nodes[self].left = b.build(left, depth+1)
	b.nodes[self].right = b.build(right, depth+1)
	return self
}

// bestSplit searches mtry randomly drawn features for the threshold with
// the largest variance reduction. Returns feature -1 when no split leaves
// MinLeaf records on both sides.
func (b *treeBuilder) bestSplit(indices []int, parentSSE float64) (int, float64, float64) {
	p := len(b.x[0])
	features := b.sampleFeatures(p)

	bestFeature := -1
	var bestThreshold, bestGain float64

	order := make([]int, len(indices))
	for _, f := range features {
		copy(order, indices)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		// Prefix scan over sorted rows; a split is legal only between
		// distinct feature values.
		totalSum, totalSumSq := sumStats(b.y, order)
		total := float64(len(order))

		var leftSum, leftSumSq float64
		step := 1
		if b.cfg.MaxSplitCandidates > 0 && len(order) > b.cfg.MaxSplitCandidates {
			step = len(order) / b.cfg.MaxSplitCandidates
		}

		for i := 0; i < len(order)-1; i++ {
			yi := b.y[order[i]]
			leftSum += yi
			leftSumSq += yi * yi

			if (i+1)%step != 0 {
				continue
			}
			lo, hi := b.x[order[i]][f], b.x[order[i+1]][f]
			if lo == hi {
				continue
			}
			nLeft := i + 1
			nRight := len(order) - nLeft
			if nLeft < b.cfg.MinLeaf || nRight < b.cfg.MinLeaf {
				continue
			}

			fl := float64(nLeft)
			fr := total - fl
			sseLeft := leftSumSq - leftSum*leftSum/fl
			rightSum := totalSum - leftSum
			sseRight := (totalSumSq - leftSumSq) - rightSum*rightSum/fr

			gain := parentSSE - sseLeft - sseRight
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// sampleFeatures draws mtry distinct feature indices.
func (b *treeBuilder) sampleFeatures(p int) []int {
	if b.mtry >= p {
		all := make([]int, p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(p)
	return perm[:b.mtry]
}
