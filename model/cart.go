package model

import (
	"sort"

	"golang.org/x/exp/rand"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// node is one node of a binary classification tree.  Rows with
// x[splitVar] <= splitVal descend left.
type node struct {
	terminal bool
	splitVar int
	splitVal float64
	prob     float64
	left     *node
	right    *node
}

func (nd *node) predict(x []float64) float64 {
	for !nd.terminal {
		if x[nd.splitVar] <= nd.splitVal {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd.prob
}

// grower holds the state for growing one greedy Gini tree.  When mtry is
// positive, each split considers a random subset of mtry predictors (the
// random forest uses this; the single tree considers all predictors).
type grower struct {
	cols     [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	mtry     int
	rng      *rand.Rand

	// Impurity decrease accumulated per predictor over all splits.
	gain []float64
}

func gini(pos, n float64) float64 {
	if n == 0 {
		return 0
	}
	p := pos / n
	return 2 * p * (1 - p)
}

// grow recursively partitions rows.  Terminal conditions: pure node, node
// too small to split, or maximum depth reached.
func (g *grower) grow(rows []int, depth int) *node {

	n := len(rows)
	var pos float64
	for _, i := range rows {
		pos += g.y[i]
	}

	nd := &node{terminal: true, prob: pos / float64(n)}
	if depth >= g.maxDepth || n < 2*g.minLeaf || pos == 0 || pos == float64(n) {
		return nd
	}

	bestVar, bestVal, bestDec := g.bestSplit(rows, pos)
	if bestVar < 0 {
		return nd
	}

	var left, right []int
	for _, i := range rows {
		if g.cols[bestVar][i] <= bestVal {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	g.gain[bestVar] += float64(n) * bestDec

	nd.terminal = false
	nd.splitVar = bestVar
	nd.splitVal = bestVal
	nd.left = g.grow(left, depth+1)
	nd.right = g.grow(right, depth+1)

	return nd
}

// bestSplit scans candidate predictors for the split with the largest Gini
// decrease, honoring the minimum leaf size.  Returns bestVar = -1 when no
// admissible split exists.
func (g *grower) bestSplit(rows []int, pos float64) (int, float64, float64) {

	n := len(rows)
	parent := gini(pos, float64(n))

	cand := g.candidates()

	bestVar := -1
	var bestVal, bestDec float64

	idx := make([]int, n)
	for _, j := range cand {

		col := g.cols[j]
		copy(idx, rows)
		sort.Slice(idx, func(a, b int) bool { return col[idx[a]] < col[idx[b]] })

		var lpos, ln float64
		for k := 0; k < n-1; k++ {
			i := idx[k]
			lpos += g.y[i]
			ln++
			if col[idx[k]] == col[idx[k+1]] {
				continue
			}
			if int(ln) < g.minLeaf || n-int(ln) < g.minLeaf {
				continue
			}
			rn := float64(n) - ln
			dec := parent - ln/float64(n)*gini(lpos, ln) - rn/float64(n)*gini(pos-lpos, rn)
			if dec > bestDec {
				bestDec = dec
				bestVar = j
				bestVal = (col[idx[k]] + col[idx[k+1]]) / 2
			}
		}
	}

	return bestVar, bestVal, bestDec
}

func (g *grower) candidates() []int {

	nvar := len(g.cols)
	if g.mtry <= 0 || g.mtry >= nvar {
		all := make([]int, nvar)
		for j := range all {
			all[j] = j
		}
		return all
	}
	return g.rng.Perm(nvar)[:g.mtry]
}

// Tree is the single greedy recursive-partitioning adapter.  Predictions
// are the positive-class fraction at the leaf reached.
type Tree struct {
	maxDepth int
	minLeaf  int
}

// NewTree returns a decision tree adapter.
func NewTree(st Settings) *Tree {
	return &Tree{maxDepth: st.MaxDepth, minLeaf: st.MinLeaf}
}

// Method returns CART.
func (*Tree) Method() Method {
	return CART
}

// Fit grows the tree on train and scores test.  A tree that never splits
// has no importances; Importances is left empty in that case, which the
// attribution layer renders as a placeholder.
func (tr *Tree) Fit(train, test *dataset.Dataset) (*Result, error) {

	xnames, xcols := train.X()

	g := &grower{
		cols:     xcols,
		y:        train.Y(),
		maxDepth: tr.maxDepth,
		minLeaf:  tr.minLeaf,
		gain:     make([]float64, len(xcols)),
	}

	rows := seqRows(train.NumObs())
	root := g.grow(rows, 0)

	var imp []Importance
	for j, v := range g.gain {
		if v > 0 {
			imp = append(imp, Importance{Name: xnames[j], Kind: GiniDecrease, Value: v})
		}
	}

	return &Result{
		Method:      CART,
		Probs:       predictAll(root, test),
		Importances: imp,
	}, nil
}

func seqRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func predictAll(root *node, test *dataset.Dataset) []float64 {

	_, xcols := test.X()
	buf := make([]float64, len(xcols))
	pr := make([]float64, test.NumObs())

	for i := range pr {
		for j := range xcols {
			buf[j] = xcols[j][i]
		}
		pr[i] = root.predict(buf)
	}

	return pr
}
