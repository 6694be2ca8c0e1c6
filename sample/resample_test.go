package sample

import (
	"testing"

	"golang.org/x/exp/rand"
)

func counts(y []float64) (pos, neg int) {
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}

func TestOversampleIdentity(t *testing.T) {

	ds := idData(t, 50, 5)
	rng := rand.New(rand.NewSource(1))

	out, err := Oversample(ds, 1, rng)
	if err != nil {
		t.Fatal(err)
	}
	if out != ds {
		t.Error("weight=1 should return the input unchanged")
	}
}

func TestOversampleWeight(t *testing.T) {

	const n, npos, weight = 1000, 100, 10
	ds := idData(t, n, npos)
	rng := rand.New(rand.NewSource(3))

	out, err := Oversample(ds, weight, rng)
	if err != nil {
		t.Fatal(err)
	}

	// Exactly (weight-1) x npos duplicated positives are appended.
	if out.NumObs() != n+npos*(weight-1) {
		t.Errorf("resampled size %d, want %d", out.NumObs(), n+npos*(weight-1))
	}

	pos, neg := counts(out.Y())
	if pos != npos*weight {
		t.Errorf("positive count %d, want %d", pos, npos*weight)
	}
	if neg != n-npos {
		t.Errorf("negative count %d changed from %d", neg, n-npos)
	}

	// Appended rows are duplicates of existing positives.
	id, _ := out.Col("id")
	for _, v := range id[n:] {
		if v >= npos {
			t.Fatalf("appended row id %v is not from the positive class", v)
		}
	}
}

func TestOversampleBadWeight(t *testing.T) {

	ds := idData(t, 10, 2)
	if _, err := Oversample(ds, 0, rand.New(rand.NewSource(1))); err == nil {
		t.Error("weight=0 not rejected")
	}
}
