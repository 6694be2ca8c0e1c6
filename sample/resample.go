package sample

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// Oversample corrects class imbalance in a training set by appending
// (weight-1) x |positives| rows drawn with replacement, uniformly at random,
// from the positive (death) class.  weight == 1 is an identity fast path
// returning the input unchanged.  Existing rows are never removed and no
// synthetic values are created; the appended rows are exact duplicates.
func Oversample(train *dataset.Dataset, weight int, rng *rand.Rand) (*dataset.Dataset, error) {

	if weight < 1 {
		return nil, fmt.Errorf("sample: oversample weight=%d, need at least 1", weight)
	}
	if weight == 1 {
		return train, nil
	}

	y := train.Y()
	var pos []int
	for i, v := range y {
		if v == 1 {
			pos = append(pos, i)
		}
	}
	if len(pos) == 0 {
		return nil, fmt.Errorf("sample: no positive rows to oversample")
	}

	n := train.NumObs()
	rows := make([]int, 0, n+len(pos)*(weight-1))
	for i := 0; i < n; i++ {
		rows = append(rows, i)
	}
	for k := 0; k < len(pos)*(weight-1); k++ {
		rows = append(rows, pos[rng.Intn(len(pos))])
	}

	return train.Select(rows), nil
}
