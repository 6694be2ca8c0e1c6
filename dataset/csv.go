package dataset

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// PositiveLabel is the outcome level coded as 1.
const PositiveLabel = "Yes"

// FromCSV reads a cleaned, imputed dataset from r.  Numeric columns pass
// through unchanged.  The outcome column must hold Yes/No labels (or a 0/1
// coding).  Any other string column is dummy-coded: its levels are sorted,
// the first level is the reference, and one indicator column per remaining
// level is emitted under the name <col>_<level>.
func FromCSV(r io.Reader, yname string) (*Dataset, error) {

	df := dataframe.ReadCSV(r)
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: read csv: %w", df.Err)
	}

	var names []string
	var cols [][]Dtype

	for _, na := range df.Names() {

		se := df.Col(na)

		if na == yname {
			y, err := codeOutcome(se)
			if err != nil {
				return nil, err
			}
			names = append(names, na)
			cols = append(cols, y)
			continue
		}

		switch se.Type() {
		case series.Float, series.Int:
			names = append(names, na)
			cols = append(cols, se.Float())
		case series.Bool:
			names = append(names, na)
			cols = append(cols, se.Float())
		default:
			dn, dc := dummyCode(na, se.Records())
			names = append(names, dn...)
			cols = append(cols, dc...)
		}
	}

	return New(names, cols, yname)
}

func codeOutcome(se series.Series) ([]Dtype, error) {

	rec := se.Records()
	y := make([]Dtype, len(rec))

	for i, v := range rec {
		switch strings.TrimSpace(v) {
		case PositiveLabel, "1":
			y[i] = 1
		case "No", "0":
			y[i] = 0
		default:
			return nil, fmt.Errorf("dataset: outcome value %q at row %d is not %s/No",
				v, i, PositiveLabel)
		}
	}

	return y, nil
}

// dummyCode expands one categorical column into indicator columns, one per
// non-reference level.
func dummyCode(name string, rec []string) ([]string, [][]Dtype) {

	seen := make(map[string]bool)
	var levels []string
	for _, v := range rec {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)

	// The first level is the reference and gets no column.
	var names []string
	var cols [][]Dtype
	for _, lev := range levels[1:] {
		c := make([]Dtype, len(rec))
		for i, v := range rec {
			if v == lev {
				c[i] = 1
			}
		}
		names = append(names, name+"_"+sanitizeLevel(lev))
		cols = append(cols, c)
	}

	return names, cols
}

func sanitizeLevel(lev string) string {
	lev = strings.TrimSpace(lev)
	lev = strings.ReplaceAll(lev, " ", "_")
	return lev
}
