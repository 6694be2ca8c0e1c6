package model

import (
	"math"
	"sort"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// CondTree is the conditional-inference tree adapter.  Instead of picking
// splits greedily by impurity, each node first tests the association between
// every predictor and the outcome; the node splits on the most significant
// predictor only when its Bonferroni-adjusted p-value clears alpha.  This
// removes the variable-selection bias of greedy trees toward predictors with
// many split points.
type CondTree struct {
	alpha    float64
	maxDepth int
	minLeaf  int
}

// NewCondTree returns a conditional-inference tree adapter with alpha 0.05.
func NewCondTree(st Settings) *CondTree {
	return &CondTree{alpha: 0.05, maxDepth: st.MaxDepth, minLeaf: st.MinLeaf}
}

// Method returns CTree.
func (*CondTree) Method() Method {
	return CTree
}

// Fit grows the tree on train and scores test.  The attribution payload is
// the set of variable names used as split predictors anywhere in the tree,
// collected by a full traversal of the fitted structure.
func (ct *CondTree) Fit(train, test *dataset.Dataset) (*Result, error) {

	xnames, xcols := train.X()

	root := ct.grow(xcols, train.Y(), seqRows(train.NumObs()), 0)

	return &Result{
		Method:    CTree,
		Probs:     predictAll(root, test),
		SplitVars: uniqueNames(splitVars(root), xnames),
	}, nil
}

func (ct *CondTree) grow(cols [][]float64, y []float64, rows []int, depth int) *node {

	n := len(rows)
	var pos float64
	for _, i := range rows {
		pos += y[i]
	}

	nd := &node{terminal: true, prob: pos / float64(n)}
	if depth >= ct.maxDepth || n < 2*ct.minLeaf || pos == 0 || pos == float64(n) {
		return nd
	}

	// Association test for each predictor; Bonferroni over the number of
	// predictors actually tested.
	bestVar := -1
	minP := math.Inf(1)
	tested := 0
	for j := range cols {
		p, ok := assocPValue(cols[j], y, rows)
		if !ok {
			continue
		}
		tested++
		if p < minP {
			minP = p
			bestVar = j
		}
	}
	if bestVar < 0 || math.Min(1, minP*float64(tested)) > ct.alpha {
		return nd
	}

	val, ok := bestPoint(cols[bestVar], y, rows, pos, ct.minLeaf)
	if !ok {
		return nd
	}

	var left, right []int
	for _, i := range rows {
		if cols[bestVar][i] <= val {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	nd.terminal = false
	nd.splitVar = bestVar
	nd.splitVal = val
	nd.left = ct.grow(cols, y, left, depth+1)
	nd.right = ct.grow(cols, y, right, depth+1)

	return nd
}

// assocPValue tests whether the mean of x differs between the outcome
// classes, using a two-sample z statistic with a normal reference.  Returns
// ok=false when the test is undefined (a one-class node or a constant
// predictor).
func assocPValue(x, y []float64, rows []int) (float64, bool) {

	var n1, n0, s1, s0 float64
	for _, i := range rows {
		if y[i] == 1 {
			n1++
			s1 += x[i]
		} else {
			n0++
			s0 += x[i]
		}
	}
	if n1 < 2 || n0 < 2 {
		return 0, false
	}

	m1 := s1 / n1
	m0 := s0 / n0

	var v1, v0 float64
	for _, i := range rows {
		if y[i] == 1 {
			d := x[i] - m1
			v1 += d * d
		} else {
			d := x[i] - m0
			v0 += d * d
		}
	}
	v1 /= n1 - 1
	v0 /= n0 - 1

	se := math.Sqrt(v1/n1 + v0/n0)
	if se == 0 {
		if m1 == m0 {
			// Constant predictor, no test.
			return 0, false
		}
		// Complete separation.
		return 0, true
	}

	z := (m1 - m0) / se
	return 2 * normcdf(-math.Abs(z)), true
}

// bestPoint finds the Gini-optimal cut point for a single predictor,
// honoring the minimum leaf size.
func bestPoint(col, y []float64, rows []int, pos float64, minLeaf int) (float64, bool) {

	n := len(rows)
	parent := gini(pos, float64(n))

	idx := make([]int, n)
	copy(idx, rows)
	sort.Slice(idx, func(a, b int) bool { return col[idx[a]] < col[idx[b]] })

	found := false
	var bestVal, bestDec float64
	var lpos, ln float64

	for k := 0; k < n-1; k++ {
		lpos += y[idx[k]]
		ln++
		if col[idx[k]] == col[idx[k+1]] {
			continue
		}
		if int(ln) < minLeaf || n-int(ln) < minLeaf {
			continue
		}
		rn := float64(n) - ln
		dec := parent - ln/float64(n)*gini(lpos, ln) - rn/float64(n)*gini(pos-lpos, rn)
		if !found || dec > bestDec {
			found = true
			bestDec = dec
			bestVal = (col[idx[k]] + col[idx[k+1]]) / 2
		}
	}

	return bestVal, found
}

// splitVars walks the fitted tree and returns the predictor indices used by
// its splits.  Each internal node is visited exactly once; the accumulation
// is carried through return values rather than shared state.
func splitVars(nd *node) []int {
	if nd.terminal {
		return nil
	}
	vars := []int{nd.splitVar}
	vars = append(vars, splitVars(nd.left)...)
	vars = append(vars, splitVars(nd.right)...)
	return vars
}

// uniqueNames maps predictor indices to their names, deduplicated in first-
// appearance order.
func uniqueNames(idx []int, names []string) []string {
	seen := make(map[int]bool)
	var out []string
	for _, j := range idx {
		if !seen[j] {
			seen[j] = true
			out = append(out, names[j])
		}
	}
	return out
}
