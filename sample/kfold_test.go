package sample

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// idData builds a dataset with a unique id predictor so that rows can be
// tracked through partitioning, with npos positive rows out of n.
func idData(t *testing.T, n, npos int) *dataset.Dataset {
	t.Helper()

	y := make([]float64, n)
	id := make([]float64, n)
	for i := 0; i < n; i++ {
		id[i] = float64(i)
		if i < npos {
			y[i] = 1
		}
	}

	ds, err := dataset.New([]string{"death", "id"}, [][]float64{y, id}, "death")
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func ids(t *testing.T, ds *dataset.Dataset) map[float64]bool {
	t.Helper()
	col, err := ds.Col("id")
	if err != nil {
		t.Fatal(err)
	}
	m := make(map[float64]bool)
	for _, v := range col {
		m[v] = true
	}
	return m
}

func TestStratifiedKFoldPartition(t *testing.T) {

	const n, npos, folds = 100, 10, 5
	ds := idData(t, n, npos)

	seen := make(map[float64]bool)
	for fold := 1; fold <= folds; fold++ {

		train, test, err := StratifiedKFold(ds, folds, fold, 42)
		if err != nil {
			t.Fatal(err)
		}

		if train.NumObs()+test.NumObs() != n {
			t.Fatalf("fold %d: %d train + %d test != %d",
				fold, train.NumObs(), test.NumObs(), n)
		}

		trainIDs := ids(t, train)
		for v := range ids(t, test) {
			if trainIDs[v] {
				t.Fatalf("fold %d: row %v in both train and test", fold, v)
			}
			if seen[v] {
				t.Fatalf("row %v appears as test in two folds", v)
			}
			seen[v] = true
		}

		// Exact stratification: 10 positives over 5 folds is 2 per fold.
		var pos float64
		for _, v := range test.Y() {
			pos += v
		}
		if pos != npos/folds {
			t.Errorf("fold %d: %v test positives, want %d", fold, pos, npos/folds)
		}
		if test.NumObs() != n/folds {
			t.Errorf("fold %d: test size %d, want %d", fold, test.NumObs(), n/folds)
		}
	}

	if len(seen) != n {
		t.Errorf("test folds cover %d rows, want %d", len(seen), n)
	}
}

func TestStratifiedKFoldDeterministic(t *testing.T) {

	ds := idData(t, 60, 12)

	_, test1, err := StratifiedKFold(ds, 4, 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	_, test2, err := StratifiedKFold(ds, 4, 2, 7)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := test1.Col("id")
	b, _ := test2.Col("id")
	if !floats.Equal(a, b) {
		t.Error("same seed produced different partitions")
	}

	_, test3, err := StratifiedKFold(ds, 4, 2, 8)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := test3.Col("id")
	if floats.Equal(a, c) {
		t.Error("different seeds produced identical partitions")
	}
}

func TestStratifiedKFoldBadParams(t *testing.T) {

	ds := idData(t, 20, 4)

	cases := []struct {
		name           string
		totFolds, fold int
	}{
		{"totFolds=1", 1, 1},
		{"fold=0", 5, 0},
		{"fold>totFolds", 5, 6},
	}
	for _, tc := range cases {
		_, _, err := StratifiedKFold(ds, tc.totFolds, tc.fold, 0)
		if err == nil {
			t.Errorf("%s not rejected", tc.name)
			continue
		}
		if !errors.Is(err, ErrFoldSpec) {
			t.Errorf("%s: error %v does not wrap ErrFoldSpec", tc.name, err)
		}
	}
}
