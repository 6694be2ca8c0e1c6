package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// HLGroups is the number of probability-ranked groups used by the
// Hosmer-Lemeshow test.
const HLGroups = 15

// HLBin is the observed and expected class composition of one
// probability-ranked group.  Lo and Hi bound the predicted probabilities
// falling in the group.
type HLBin struct {
	Lo     float64
	Hi     float64
	ObsNeg float64
	ObsPos float64
	ExpNeg float64
	ExpPos float64
}

// HLResult is the Hosmer-Lemeshow chi-squared statistic with its p-value
// and the per-group diagnostic table.  When the test is not applicable
// (constant predictions cannot be ranked into groups) Stat is NaN, P is 0
// exactly, and Bins holds a single placeholder with NaN counts.
type HLResult struct {
	Stat float64
	P    float64
	Bins []HLBin
}

// Degenerate reports whether the result is the not-applicable sentinel.
func (r HLResult) Degenerate() bool {
	return math.IsNaN(r.Stat)
}

// HosmerLemeshow partitions the observations into g groups by predicted-
// probability rank and compares observed against expected positive counts
// per group with a chi-squared statistic on g-2 degrees of freedom.
func HosmerLemeshow(probs, labels []float64, g int) HLResult {

	n := len(probs)
	if g > n {
		g = n
	}

	if g < 3 || constant(probs) {
		return HLResult{
			Stat: math.NaN(),
			P:    0,
			Bins: []HLBin{{
				Lo:     first(probs),
				Hi:     first(probs),
				ObsNeg: math.NaN(),
				ObsPos: math.NaN(),
				ExpNeg: math.NaN(),
				ExpPos: math.NaN(),
			}},
		}
	}

	p := make([]float64, n)
	copy(p, probs)
	inds := make([]int, n)
	floats.Argsort(p, inds)

	var stat float64
	bins := make([]HLBin, 0, g)

	for k := 0; k < g; k++ {

		lo := k * n / g
		hi := (k + 1) * n / g
		if hi == lo {
			continue
		}

		bin := HLBin{Lo: p[lo], Hi: p[hi-1]}
		for _, j := range inds[lo:hi] {
			bin.ExpPos += probs[j]
			if labels[j] == 1 {
				bin.ObsPos++
			} else {
				bin.ObsNeg++
			}
		}
		nk := float64(hi - lo)
		bin.ExpNeg = nk - bin.ExpPos

		if bin.ExpPos > 1e-10 {
			d := bin.ObsPos - bin.ExpPos
			stat += d * d / bin.ExpPos
		}
		if bin.ExpNeg > 1e-10 {
			d := bin.ObsNeg - bin.ExpNeg
			stat += d * d / bin.ExpNeg
		}

		bins = append(bins, bin)
	}

	chi2 := distuv.ChiSquared{K: float64(g - 2)}

	return HLResult{
		Stat: stat,
		P:    chi2.Survival(stat),
		Bins: bins,
	}
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func first(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[0]
}
