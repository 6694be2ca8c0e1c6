package model

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

func smallForestSettings(seed uint64) Settings {
	st := DefaultSettings(seed)
	st.Trees = 30
	st.Workers = 2
	st.MaxDepth = 6
	st.MinLeaf = 5
	return st
}

func TestForestFit(t *testing.T) {

	train := sepData(t, 200, 11)
	test := sepData(t, 60, 12)

	res, err := NewForest(smallForestSettings(9)).Fit(train, test)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Probs) != test.NumObs() {
		t.Fatalf("%d predictions for %d test rows", len(res.Probs), test.NumObs())
	}
	y := test.Y()
	for i, p := range res.Probs {
		if p < 0 || p > 1 {
			t.Fatalf("vote fraction %v outside [0,1]", p)
		}
		if (y[i] == 1) != (p >= 0.5) {
			t.Errorf("row %d predicted %v, outcome %v", i, p, y[i])
		}
	}

	// Both importance measures are present for every predictor.
	kinds := make(map[string]map[string]float64)
	for _, im := range res.Importances {
		if kinds[im.Name] == nil {
			kinds[im.Name] = make(map[string]float64)
		}
		kinds[im.Name][im.Kind] = im.Value
	}
	for _, na := range []string{"x1", "x2"} {
		if _, ok := kinds[na][MeanDecreaseAccuracy]; !ok {
			t.Errorf("%s is missing %s", na, MeanDecreaseAccuracy)
		}
		if _, ok := kinds[na][MeanDecreaseGini]; !ok {
			t.Errorf("%s is missing %s", na, MeanDecreaseGini)
		}
	}

	// The separating variable must dominate both measures.
	if kinds["x1"][MeanDecreaseGini] <= kinds["x2"][MeanDecreaseGini] {
		t.Error("noise variable out-ranks the separating variable on impurity")
	}
	if kinds["x1"][MeanDecreaseAccuracy] <= kinds["x2"][MeanDecreaseAccuracy] {
		t.Error("noise variable out-ranks the separating variable on permutation accuracy")
	}
}

// Per-tree RNG seeds are derived from the adapter seed and the tree index,
// so a fit is reproducible regardless of worker scheduling.
func TestForestDeterministic(t *testing.T) {

	train := sepData(t, 150, 21)
	test := sepData(t, 50, 22)

	a, err := NewForest(smallForestSettings(5)).Fit(train, test)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewForest(smallForestSettings(5)).Fit(train, test)
	if err != nil {
		t.Fatal(err)
	}

	if !floats.Equal(a.Probs, b.Probs) {
		t.Error("same seed produced different forests")
	}
	for i := range a.Importances {
		if a.Importances[i] != b.Importances[i] {
			t.Error("same seed produced different importances")
			break
		}
	}
}
