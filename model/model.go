// Package model fits the five mortality classifiers behind a single
// adapter contract.  Each adapter consumes the same training and test
// datasets and produces held-out death probabilities plus a method-specific
// attribution payload.
package model

import (
	"github.com/gnguy/mph-thesis-ml/dataset"
)

// Method identifies one of the five classifiers.  The set is closed:
// downstream consumers switch on the method tag, never on model internals.
type Method int

// The five supported classification methods.
const (
	Logit Method = iota
	CART
	CTree
	Forest
	Boost
)

func (m Method) String() string {
	switch m {
	case Logit:
		return "logit"
	case CART:
		return "cart"
	case CTree:
		return "ctree"
	case Forest:
		return "forest"
	case Boost:
		return "boost"
	}
	return "unknown"
}

// Methods returns all methods in canonical order.
func Methods() []Method {
	return []Method{Logit, CART, CTree, Forest, Boost}
}

// Importance kinds attached to ImportanceRow values.
const (
	GiniDecrease         = "GiniDecrease"
	MeanDecreaseAccuracy = "MeanDecreaseAccuracy"
	MeanDecreaseGini     = "MeanDecreaseGini"
	Gain                 = "Gain"
)

// Coefficient is one row of a fitted logistic regression summary.
type Coefficient struct {
	Name string
	Est  float64
	SE   float64
	Z    float64
	P    float64
}

// Importance is one native variable-importance score.
type Importance struct {
	Name  string
	Kind  string
	Value float64
}

// Result is the uniform output of one adapter fit.  Probs holds one
// probability of death per test row, aligned to the test row order.  At most
// one of Coef, Importances and SplitVars is populated, according to the
// method family.  A tree that never split leaves Importances empty; that is
// an expected outcome, not an error.
type Result struct {
	Method      Method
	Probs       []float64
	Coef        []Coefficient
	Importances []Importance
	SplitVars   []string
}

// Adapter fits one model type.  Fit must leave train and test unmodified
// and must be safe to run concurrently with other adapters over the same
// data.
type Adapter interface {
	Method() Method
	Fit(train, test *dataset.Dataset) (*Result, error)
}

// Settings collects the tuning knobs shared by the tree-based adapters.
// The zero value is not usable; call DefaultSettings.
type Settings struct {
	// Forest
	Trees   int
	Workers int

	// Boosting
	Rounds    int
	Shrinkage float64
	Patience  int

	// Tree growth limits shared by cart, ctree, forest and boost.
	MaxDepth int
	MinLeaf  int

	// Seed for every stochastic adapter.
	Seed uint64
}

// DefaultSettings returns the settings used by the cross-validation driver.
func DefaultSettings(seed uint64) Settings {
	return Settings{
		Trees:     500,
		Workers:   4,
		Rounds:    200,
		Shrinkage: 0.1,
		Patience:  10,
		MaxDepth:  12,
		MinLeaf:   10,
		Seed:      seed,
	}
}

// Adapters constructs the full set of five adapters with the given settings.
func Adapters(st Settings) []Adapter {
	return []Adapter{
		NewLogistic(),
		NewTree(st),
		NewCondTree(st),
		NewForest(st),
		NewBooster(st),
	}
}
