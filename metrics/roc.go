// Package metrics computes the discrimination and calibration measures
// reported for every classifier: the ROC staircase, AUC, accuracy at fixed
// probability cutoffs, and the Hosmer-Lemeshow goodness-of-fit test.  All
// functions consume an aligned (predicted probability, true 0/1 label) pair
// sequence and are agnostic to which model produced it.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Point is one vertex of the ROC staircase.  Threshold is the decision
// cutoff achieving (FPR, TPR); points are ordered by ascending FPR from
// (0, 0) to (1, 1).
type Point struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// Curve computes the full ROC staircase by sweeping the decision threshold
// over all distinct predicted values plus the boundary threshold.  It
// returns nil when the labels contain only one class, in which case the
// curve is undefined.
func Curve(probs, labels []float64) []Point {

	var npos int
	for _, v := range labels {
		if v == 1 {
			npos++
		}
	}
	if npos == 0 || npos == len(labels) {
		return nil
	}

	y := make([]float64, len(probs))
	copy(y, probs)
	classes := make([]bool, len(labels))
	for i, v := range labels {
		classes[i] = v == 1
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)

	pts := make([]Point, len(tpr))
	for i := range pts {
		pts[i] = Point{FPR: fpr[i], TPR: tpr[i], Threshold: thresh[i]}
	}

	return pts
}

// AUC returns the area under the ROC staircase, the probability that a
// random positive case outranks a random negative one.  For a nil curve
// (one-class labels) it returns NaN.
func AUC(pts []Point) float64 {

	if len(pts) == 0 {
		return math.NaN()
	}

	fpr := make([]float64, len(pts))
	tpr := make([]float64, len(pts))
	for i, p := range pts {
		fpr[i] = p.FPR
		tpr[i] = p.TPR
	}

	return integrate.Trapezoidal(fpr, tpr)
}
