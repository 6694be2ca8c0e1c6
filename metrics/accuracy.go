package metrics

import (
	"math"
	"sort"
)

// Cutoffs is the fixed probability grid at which classification accuracy is
// reported.
var Cutoffs = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.75, 0.9}

// CutoffAccuracy is the accuracy achieved when classifying positive at the
// nearest achieved threshold at or above Cutoff.  When no predicted value
// reaches the cutoff, Threshold and Accuracy are NaN.
type CutoffAccuracy struct {
	Cutoff    float64
	Threshold float64
	Accuracy  float64
}

// AccuracyAtCutoffs evaluates accuracy over the cutoff grid.  The decision
// rule classifies positive iff the predicted probability is at least the
// chosen threshold; only thresholds actually achieved by the predictions
// are used, never interpolated values.
func AccuracyAtCutoffs(probs, labels, cutoffs []float64) []CutoffAccuracy {

	// Distinct achieved prediction values, ascending.
	distinct := make([]float64, len(probs))
	copy(distinct, probs)
	sort.Float64s(distinct)
	k := 0
	for i, v := range distinct {
		if i == 0 || v != distinct[k-1] {
			distinct[k] = v
			k++
		}
	}
	distinct = distinct[:k]

	out := make([]CutoffAccuracy, len(cutoffs))
	for c, cut := range cutoffs {

		// The nearest achieved threshold at or above the cutoff.
		j := sort.SearchFloat64s(distinct, cut)
		if j == len(distinct) {
			out[c] = CutoffAccuracy{Cutoff: cut, Threshold: math.NaN(), Accuracy: math.NaN()}
			continue
		}
		t := distinct[j]

		var correct float64
		for i, p := range probs {
			pred := 0.0
			if p >= t {
				pred = 1
			}
			if pred == labels[i] {
				correct++
			}
		}

		out[c] = CutoffAccuracy{
			Cutoff:    cut,
			Threshold: t,
			Accuracy:  correct / float64(len(probs)),
		}
	}

	return out
}
