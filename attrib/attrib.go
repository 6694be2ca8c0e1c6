// Package attrib normalizes the heterogeneous attribution payloads of the
// model adapters into the two reported shapes: variable inclusion (logistic
// regression and the conditional-inference tree) and variable importance
// (the tree ensembles and the single tree).
package attrib

import (
	"math"

	"github.com/gnguy/mph-thesis-ml/model"
)

// InclusionAlpha is the coefficient p-value below which a logistic
// regression variable counts as included.
const InclusionAlpha = 0.05

// InclusionRow marks one variable as included by one method.
type InclusionRow struct {
	Variable string
	Method   string
	Included bool
}

// ImportanceRow is one native importance score for one variable.  A method
// whose model exposes no importances contributes a single placeholder row
// with an empty variable name and a NaN value.
type ImportanceRow struct {
	Variable string
	Method   string
	Kind     string
	Value    float64
}

// Inclusion extracts the inclusion table from a fitted result.  For
// logistic regression a variable is included when its coefficient p-value
// is below InclusionAlpha (the intercept is never reported); for the
// conditional-inference tree every split predictor is included.  Other
// methods contribute no rows.
func Inclusion(res *model.Result) []InclusionRow {

	var rows []InclusionRow

	switch res.Method {
	case model.Logit:
		for _, c := range res.Coef {
			if c.Name == "(Intercept)" {
				continue
			}
			rows = append(rows, InclusionRow{
				Variable: c.Name,
				Method:   res.Method.String(),
				Included: c.P < InclusionAlpha,
			})
		}
	case model.CTree:
		for _, na := range res.SplitVars {
			rows = append(rows, InclusionRow{
				Variable: na,
				Method:   res.Method.String(),
				Included: true,
			})
		}
	}

	return rows
}

// Importance extracts the importance table from a fitted result.  Methods
// outside the importance family contribute no rows; a method in the family
// with an empty payload yields the placeholder row.
func Importance(res *model.Result) []ImportanceRow {

	switch res.Method {
	case model.CART, model.Forest, model.Boost:
	default:
		return nil
	}

	if len(res.Importances) == 0 {
		return []ImportanceRow{{
			Variable: "",
			Method:   res.Method.String(),
			Kind:     "",
			Value:    math.NaN(),
		}}
	}

	rows := make([]ImportanceRow, len(res.Importances))
	for i, im := range res.Importances {
		rows[i] = ImportanceRow{
			Variable: im.Name,
			Method:   res.Method.String(),
			Kind:     im.Kind,
			Value:    im.Value,
		}
	}

	return rows
}
