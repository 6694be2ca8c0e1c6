package model

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// interactionDepth caps the depth of the individual boosted trees.
const interactionDepth = 3

// Booster fits a gradient-boosted ensemble of shallow regression trees on
// the logistic deviance gradient.  A fifth of the training rows is held out
// internally (separate from the outer test fold) to pick the stopping
// round.
type Booster struct {
	rounds    int
	shrinkage float64
	patience  int
	minLeaf   int
	seed      uint64
}

// NewBooster returns a gradient boosting adapter.
func NewBooster(st Settings) *Booster {
	return &Booster{
		rounds:    st.Rounds,
		shrinkage: st.Shrinkage,
		patience:  st.Patience,
		minLeaf:   st.MinLeaf,
		seed:      st.Seed,
	}
}

// Method returns Boost.
func (*Booster) Method() Method {
	return Boost
}

// regNode is a node of a regression tree fit to the gradient.
type regNode struct {
	terminal bool
	splitVar int
	splitVal float64
	value    float64
	left     *regNode
	right    *regNode
}

func (nd *regNode) predict(x []float64) float64 {
	for !nd.terminal {
		if x[nd.splitVar] <= nd.splitVal {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd.value
}

// Fit boosts on train and scores test.  The attribution payload is the
// per-variable total squared-error gain across all kept trees.
func (bo *Booster) Fit(train, test *dataset.Dataset) (*Result, error) {

	xnames, xcols := train.X()
	y := train.Y()
	n := train.NumObs()
	nvar := len(xcols)

	rng := rand.New(rand.NewSource(bo.seed))
	perm := rng.Perm(n)
	nv := n / 5
	if nv < 1 {
		return nil, fmt.Errorf("boost: %d training rows is too few for internal validation", n)
	}
	valid := perm[:nv]
	fit := perm[nv:]

	// Start from the log odds of the internal training rows.
	var pos float64
	for _, i := range fit {
		pos += y[i]
	}
	base := clampProb(pos / float64(len(fit)))
	f0 := math.Log(base / (1 - base))

	f := make([]float64, n)
	for i := range f {
		f[i] = f0
	}

	res := make([]float64, n)
	wgt := make([]float64, n)
	buf := make([]float64, nvar)

	var trees []*regNode
	var gains [][]float64
	bestDev := math.Inf(1)
	best := 0
	wait := 0

	for m := 0; m < bo.rounds; m++ {

		for _, i := range fit {
			p := clampProb(sigmoid(f[i]))
			res[i] = y[i] - p
			wgt[i] = p * (1 - p)
		}

		g := &regGrower{
			cols:     xcols,
			res:      res,
			wgt:      wgt,
			maxDepth: interactionDepth,
			minLeaf:  bo.minLeaf,
			gain:     make([]float64, nvar),
		}
		root := g.grow(fit, 0)

		for i := 0; i < n; i++ {
			for j := range xcols {
				buf[j] = xcols[j][i]
			}
			f[i] += bo.shrinkage * root.predict(buf)
		}

		trees = append(trees, root)
		gains = append(gains, g.gain)

		var dev float64
		for _, i := range valid {
			p := clampProb(sigmoid(f[i]))
			if y[i] == 1 {
				dev -= 2 * math.Log(p)
			} else {
				dev -= 2 * math.Log(1-p)
			}
		}

		if dev < bestDev-1e-12 {
			bestDev = dev
			best = m + 1
			wait = 0
		} else {
			wait++
			if wait >= bo.patience {
				break
			}
		}
	}

	trees = trees[:best]
	gains = gains[:best]

	// Score the outer test set with the kept trees only.
	_, tcols := test.X()
	probs := make([]float64, test.NumObs())
	tbuf := make([]float64, nvar)
	for i := range probs {
		for j := range tcols {
			tbuf[j] = tcols[j][i]
		}
		s := f0
		for _, t := range trees {
			s += bo.shrinkage * t.predict(tbuf)
		}
		probs[i] = sigmoid(s)
	}

	total := make([]float64, nvar)
	for _, g := range gains {
		for j := range g {
			total[j] += g[j]
		}
	}
	var imp []Importance
	for j, v := range total {
		if v > 0 {
			imp = append(imp, Importance{Name: xnames[j], Kind: Gain, Value: v})
		}
	}

	return &Result{
		Method:      Boost,
		Probs:       probs,
		Importances: imp,
	}, nil
}

// regGrower grows one least-squares tree on the working residuals.  Leaf
// values are Newton steps: sum of residuals over sum of Bernoulli weights.
type regGrower struct {
	cols     [][]float64
	res      []float64
	wgt      []float64
	maxDepth int
	minLeaf  int
	gain     []float64
}

func (g *regGrower) grow(rows []int, depth int) *regNode {

	n := len(rows)
	var sr, sw float64
	for _, i := range rows {
		sr += g.res[i]
		sw += g.wgt[i]
	}
	if sw < 1e-12 {
		sw = 1e-12
	}

	nd := &regNode{terminal: true, value: sr / sw}
	if depth >= g.maxDepth || n < 2*g.minLeaf {
		return nd
	}

	bestVar, bestVal, bestDec := g.bestSplit(rows, sr)
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

	g.gain[bestVar] += bestDec

	nd.terminal = false
	nd.splitVar = bestVar
	nd.splitVal = bestVal
	nd.left = g.grow(left, depth+1)
	nd.right = g.grow(right, depth+1)

	return nd
}

// bestSplit maximizes the squared-error reduction of splitting the node.
// With prefix sums the reduction is (sl)^2/nl + (sr)^2/nr - (s)^2/n.
func (g *regGrower) bestSplit(rows []int, sum float64) (int, float64, float64) {

	n := len(rows)
	idx := make([]int, n)

	bestVar := -1
	var bestVal, bestDec float64

	for j := range g.cols {

		col := g.cols[j]
		copy(idx, rows)
		sort.Slice(idx, func(a, b int) bool { return col[idx[a]] < col[idx[b]] })

		var ls float64
		var ln int
		for k := 0; k < n-1; k++ {
			ls += g.res[idx[k]]
			ln++
			if col[idx[k]] == col[idx[k+1]] {
				continue
			}
			if ln < g.minLeaf || n-ln < g.minLeaf {
				continue
			}
			rs := sum - ls
			rn := n - ln
			dec := ls*ls/float64(ln) + rs*rs/float64(rn) - sum*sum/float64(n)
			if dec > bestDec {
				bestDec = dec
				bestVar = j
				bestVal = (col[idx[k]] + col[idx[k+1]]) / 2
			}
		}
	}

	return bestVar, bestVal, bestDec
}
