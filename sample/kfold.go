// Package sample partitions and reweights datasets ahead of model fitting.
package sample

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// ErrFoldSpec reports fold parameters that cannot define a partition.
var ErrFoldSpec = errors.New("sample: invalid fold specification")

// StratifiedKFold partitions ds into totFolds groups, stratified by the
// outcome class so that each group carries a proportional share of the
// minority class, and returns the rows of group fold (1-based) as the test
// set and all remaining rows as the training set.
//
// The partition is a pure function of (ds, totFolds, seed).  Callers that
// want comparable splits across runs differing only in reweighting or
// variable-subset configuration must derive seed from the repetition and
// fold alone.
func StratifiedKFold(ds *dataset.Dataset, totFolds, fold int, seed uint64) (*dataset.Dataset, *dataset.Dataset, error) {

	if totFolds < 2 {
		return nil, nil, fmt.Errorf("%w: totFolds=%d, need at least 2", ErrFoldSpec, totFolds)
	}
	if fold < 1 || fold > totFolds {
		return nil, nil, fmt.Errorf("%w: fold=%d out of range [1, %d]", ErrFoldSpec, fold, totFolds)
	}

	y := ds.Y()
	var pos, neg []int
	for i, v := range y {
		if v == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	// Round-robin within each class keeps the group sizes balanced to
	// within one row per class.
	group := make([]int, ds.NumObs())
	for k, i := range pos {
		group[i] = k % totFolds
	}
	for k, i := range neg {
		group[i] = k % totFolds
	}

	var trainRows, testRows []int
	for i := 0; i < ds.NumObs(); i++ {
		if group[i] == fold-1 {
			testRows = append(testRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}

	return ds.Select(trainRows), ds.Select(testRows), nil
}
