package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gnguy/mph-thesis-ml/dataset"
)

// Logistic fits a binomial GLM with a logit link by iteratively reweighted
// least squares.  An intercept is always included.
type Logistic struct {
	maxIter int
	dtol    float64
}

// NewLogistic returns a logistic regression adapter with default fitting
// controls.
func NewLogistic() *Logistic {
	return &Logistic{maxIter: 100, dtol: 1e-8}
}

// Method returns Logit.
func (*Logistic) Method() Method {
	return Logit
}

const interceptName = "(Intercept)"

// Fit estimates the model on train and scores test.  The attribution
// payload is the per-coefficient summary (estimate, SE, z, p).
func (lr *Logistic) Fit(train, test *dataset.Dataset) (*Result, error) {

	xnames, xcols := train.X()
	y := train.Y()
	n := len(y)

	// Design: intercept followed by the predictors.
	icept := make([]float64, n)
	for i := range icept {
		icept[i] = 1
	}
	xdat := append([][]dataset.Dtype{icept}, xcols...)
	names := append([]string{interceptName}, xnames...)
	nvar := len(xdat)

	params := make([]float64, nvar)
	linpred := make([]float64, n)
	mn := make([]float64, n)
	irlsw := make([]float64, n)
	adjy := make([]float64, n)
	xty := make([]float64, nvar)
	xtx := make([]float64, nvar*nvar)

	var nparam mat.VecDense
	var dev []float64
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {

		zero(xtx)
		zero(xty)

		for i := range linpred {
			linpred[i] = 0
		}
		for j := range xdat {
			for i := range linpred {
				linpred[i] += xdat[j][i] * params[j]
			}
		}

		if iter == 0 {
			// Shrink the starting means toward 1/2.
			for i := range mn {
				mn[i] = (y[i] + 0.5) / 2
			}
		} else {
			for i := range mn {
				mn[i] = sigmoid(linpred[i])
			}
		}

		var devi float64
		for i := range mn {
			m := clampProb(mn[i])
			irlsw[i] = m * (1 - m)
			adjy[i] = linpred[i] + (y[i]-m)/(m*(1-m))
			if y[i] == 1 {
				devi -= 2 * math.Log(m)
			} else {
				devi -= 2 * math.Log(1-m)
			}
		}

		xprod(xdat, adjy, irlsw, xty, xtx)

		xtxm := mat.NewDense(nvar, nvar, xtx)
		xtyv := mat.NewVecDense(nvar, xty)
		if err := nparam.SolveVec(xtxm, xtyv); err != nil {
			return nil, fmt.Errorf("logit: singular weighted moment matrix: %w", err)
		}
		copy(params, nparam.RawVector().Data)

		dev = append(dev, devi)
		if len(dev) > 2 && math.Abs(dev[len(dev)-1]-dev[len(dev)-2]) < lr.dtol {
			converged = true
			break
		}
	}

	if !converged {
		return nil, fmt.Errorf("logit: IRLS failed to converge in %d iterations", lr.maxIter)
	}

	coef, err := lr.summary(xdat, params, names)
	if err != nil {
		return nil, err
	}

	return &Result{
		Method: Logit,
		Probs:  lr.predict(test, xnames, params),
		Coef:   coef,
	}, nil
}

// summary computes the coefficient table from the Fisher information at the
// converged parameter value.
func (lr *Logistic) summary(xdat [][]float64, params []float64, names []string) ([]Coefficient, error) {

	n := len(xdat[0])
	nvar := len(xdat)

	linpred := make([]float64, n)
	for j := range xdat {
		for i := range linpred {
			linpred[i] += xdat[j][i] * params[j]
		}
	}
	irlsw := make([]float64, n)
	for i := range irlsw {
		m := clampProb(sigmoid(linpred[i]))
		irlsw[i] = m * (1 - m)
	}

	xty := make([]float64, nvar)
	xtx := make([]float64, nvar*nvar)
	xprod(xdat, linpred, irlsw, xty, xtx)

	var vcov mat.Dense
	if err := vcov.Inverse(mat.NewDense(nvar, nvar, xtx)); err != nil {
		return nil, fmt.Errorf("logit: Fisher information is not invertible: %w", err)
	}

	coef := make([]Coefficient, nvar)
	for j := range coef {
		se := math.Sqrt(vcov.At(j, j))
		z := params[j] / se
		coef[j] = Coefficient{
			Name: names[j],
			Est:  params[j],
			SE:   se,
			Z:    z,
			P:    2 * normcdf(-math.Abs(z)),
		}
	}

	return coef, nil
}

func (lr *Logistic) predict(test *dataset.Dataset, xnames []string, params []float64) []float64 {

	_, xcols := test.X()
	pr := make([]float64, test.NumObs())

	for i := range pr {
		lp := params[0]
		for j := range xnames {
			lp += xcols[j][i] * params[j+1]
		}
		pr[i] = sigmoid(lp)
	}

	return pr
}

// xprod accumulates the weighted moment matrices x'wz and x'wx.
func xprod(xdat [][]float64, z, w, xty, xtx []float64) {

	nvar := len(xdat)

	for j1 := 0; j1 < nvar; j1++ {
		xda := xdat[j1]
		var u float64
		for i := range z {
			u += z[i] * xda[i] * w[i]
		}
		xty[j1] += u

		for j2 := 0; j2 <= j1; j2++ {
			xdb := xdat[j2]
			var u float64
			for i := range xda {
				u += xda[i] * xdb[i] * w[i]
			}
			xtx[j1*nvar+j2] += u
		}
	}

	// Fill in the unfilled triangle.
	for j1 := 0; j1 < nvar; j1++ {
		for j2 := j1 + 1; j2 < nvar; j2++ {
			xtx[j1*nvar+j2] = xtx[j2*nvar+j1]
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampProb(p float64) float64 {
	const eps = 1e-10
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

// normcdf is the standard normal cumulative distribution function.
func normcdf(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
