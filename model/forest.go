package model

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// RandomForest bags Gini trees grown on bootstrap samples with random
// feature subsetting at every split.  This is the most expensive adapter to
// fit, so trees are grown by an internal worker pool.
type RandomForest struct {
	trees    int
	workers  int
	maxDepth int
	minLeaf  int
	seed     uint64
}

// NewForest returns a random forest adapter.
func NewForest(st Settings) *RandomForest {
	w := st.Workers
	if w < 1 {
		w = 1
	}
	return &RandomForest{
		trees:    st.Trees,
		workers:  w,
		maxDepth: st.MaxDepth,
		minLeaf:  st.MinLeaf,
		seed:     st.Seed,
	}
}

// Method returns Forest.
func (*RandomForest) Method() Method {
	return Forest
}

// bagTree is one fitted member of the ensemble along with its out-of-bag
// rows and per-variable statistics.
type bagTree struct {
	root *node
	oob  []int
	gain []float64

	// Out-of-bag permutation accuracy decrease per variable.
	permDec []float64
}

// Fit grows the ensemble on train and scores test.  Prediction is the
// fraction of trees voting positive.  Two importance measures are emitted
// per variable: out-of-bag permutation accuracy decrease and mean impurity
// decrease.
func (rf *RandomForest) Fit(train, test *dataset.Dataset) (*Result, error) {

	xnames, xcols := train.X()
	y := train.Y()
	n := train.NumObs()
	nvar := len(xcols)

	mtry := int(math.Sqrt(float64(nvar)))
	if mtry < 1 {
		mtry = 1
	}

	trees := make([]*bagTree, rf.trees)

	// Each tree derives its RNG from the adapter seed and its own index,
	// so the fit is deterministic regardless of scheduling.
	var wg sync.WaitGroup
	sem := make(chan struct{}, rf.workers)
	for b := 0; b < rf.trees; b++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(b int) {
			defer wg.Done()
			defer func() { <-sem }()
			trees[b] = rf.growTree(xcols, y, n, mtry, rf.seed+uint64(b))
		}(b)
	}
	wg.Wait()

	// Vote over the ensemble.
	_, tcols := test.X()
	probs := make([]float64, test.NumObs())
	buf := make([]float64, nvar)
	for i := range probs {
		for j := range tcols {
			buf[j] = tcols[j][i]
		}
		var votes float64
		for _, t := range trees {
			if t.root.predict(buf) >= 0.5 {
				votes++
			}
		}
		probs[i] = votes / float64(len(trees))
	}

	return &Result{
		Method:      Forest,
		Probs:       probs,
		Importances: rf.importances(trees, xnames),
	}, nil
}

func (rf *RandomForest) growTree(xcols [][]float64, y []float64, n, mtry int, seed uint64) *bagTree {

	rng := rand.New(rand.NewSource(seed))

	inbag := make([]bool, n)
	rows := make([]int, n)
	for i := range rows {
		r := rng.Intn(n)
		rows[i] = r
		inbag[r] = true
	}

	var oob []int
	for i := 0; i < n; i++ {
		if !inbag[i] {
			oob = append(oob, i)
		}
	}

	g := &grower{
		cols:     xcols,
		y:        y,
		maxDepth: rf.maxDepth,
		minLeaf:  rf.minLeaf,
		mtry:     mtry,
		rng:      rng,
		gain:     make([]float64, len(xcols)),
	}
	root := g.grow(rows, 0)

	t := &bagTree{root: root, oob: oob, gain: g.gain}
	t.permDec = rf.permImportance(t, xcols, y, rng)
	return t
}

// permImportance measures, for one tree, how much the out-of-bag accuracy
// drops when each variable is permuted among the out-of-bag rows.
func (rf *RandomForest) permImportance(t *bagTree, xcols [][]float64, y []float64, rng *rand.Rand) []float64 {

	nvar := len(xcols)
	dec := make([]float64, nvar)
	if len(t.oob) == 0 {
		return dec
	}

	buf := make([]float64, nvar)
	oobAcc := func(perm []float64, pj int) float64 {
		var correct float64
		for k, i := range t.oob {
			for j := range xcols {
				buf[j] = xcols[j][i]
			}
			if perm != nil {
				buf[pj] = perm[k]
			}
			pred := 0.0
			if t.root.predict(buf) >= 0.5 {
				pred = 1
			}
			if pred == y[i] {
				correct++
			}
		}
		return correct / float64(len(t.oob))
	}

	base := oobAcc(nil, -1)

	perm := make([]float64, len(t.oob))
	for j := 0; j < nvar; j++ {
		for k, i := range t.oob {
			perm[k] = xcols[j][i]
		}
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		dec[j] = base - oobAcc(perm, j)
	}

	return dec
}

func (rf *RandomForest) importances(trees []*bagTree, xnames []string) []Importance {

	nvar := len(xnames)
	mda := make([]float64, nvar)
	mdi := make([]float64, nvar)

	for _, t := range trees {
		for j := 0; j < nvar; j++ {
			mda[j] += t.permDec[j]
			mdi[j] += t.gain[j]
		}
	}

	imp := make([]Importance, 0, 2*nvar)
	for j, na := range xnames {
		imp = append(imp,
			Importance{Name: na, Kind: MeanDecreaseAccuracy, Value: mda[j] / float64(len(trees))},
			Importance{Name: na, Kind: MeanDecreaseGini, Value: mdi[j] / float64(len(trees))},
		)
	}

	return imp
}
