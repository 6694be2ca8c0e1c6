// Package dataset holds the rectangular, column-oriented data consumed by the
// model adapters.  All columns are stored as float64 slices; categorical
// predictors are dummy-coded at load time so that every downstream consumer
// sees a purely numeric design.
package dataset

import (
	"fmt"
)

// Dtype is the type of all data values in a Dataset.
type Dtype = float64

// Dataset is an immutable collection of named columns with a designated
// binary outcome column.  The outcome is coded 1 for the positive (death)
// class and 0 otherwise.
type Dataset struct {
	names []string
	cols  [][]Dtype
	yname string
	ypos  int
}

// New constructs a Dataset from parallel name and column slices.  The
// outcome column yname must be present, all columns must have equal length,
// and the outcome must be coded 0/1.
func New(names []string, cols [][]Dtype, yname string) (*Dataset, error) {

	if len(names) != len(cols) {
		return nil, fmt.Errorf("dataset: %d names for %d columns", len(names), len(cols))
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: no columns")
	}

	n := len(cols[0])
	for j, c := range cols {
		if len(c) != n {
			return nil, fmt.Errorf("dataset: column %s has length %d, expected %d",
				names[j], len(c), n)
		}
	}

	ypos := -1
	for j, na := range names {
		if na == yname {
			ypos = j
		}
	}
	if ypos == -1 {
		return nil, fmt.Errorf("dataset: outcome column %s not found", yname)
	}
	for _, v := range cols[ypos] {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("dataset: outcome column %s is not coded 0/1", yname)
		}
	}

	return &Dataset{names: names, cols: cols, yname: yname, ypos: ypos}, nil
}

// NumObs returns the number of rows.
func (ds *Dataset) NumObs() int {
	return len(ds.cols[0])
}

// NumVar returns the number of columns, including the outcome.
func (ds *Dataset) NumVar() int {
	return len(ds.cols)
}

// Names returns the column names in storage order.
func (ds *Dataset) Names() []string {
	return ds.names
}

// Outcome returns the name of the outcome column.
func (ds *Dataset) Outcome() string {
	return ds.yname
}

// Y returns the outcome column.
func (ds *Dataset) Y() []Dtype {
	return ds.cols[ds.ypos]
}

// Predictors returns the names of all non-outcome columns, in storage order.
func (ds *Dataset) Predictors() []string {
	var pr []string
	for j, na := range ds.names {
		if j != ds.ypos {
			pr = append(pr, na)
		}
	}
	return pr
}

// Col returns the column with the given name, or an error if it is not
// present.
func (ds *Dataset) Col(name string) ([]Dtype, error) {
	for j, na := range ds.names {
		if na == name {
			return ds.cols[j], nil
		}
	}
	return nil, fmt.Errorf("dataset: no column named %s", name)
}

// mustCol is Col for callers that have already validated the name.
func (ds *Dataset) mustCol(name string) []Dtype {
	c, err := ds.Col(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Subset returns a new Dataset containing the outcome column and only the
// named predictors.  The receiver is not modified.
func (ds *Dataset) Subset(vars []string) (*Dataset, error) {

	names := []string{ds.yname}
	cols := [][]Dtype{ds.cols[ds.ypos]}

	for _, v := range vars {
		if v == ds.yname {
			continue
		}
		c, err := ds.Col(v)
		if err != nil {
			return nil, err
		}
		names = append(names, v)
		cols = append(cols, c)
	}

	return New(names, cols, ds.yname)
}

// Select materializes the given rows, in order, into a new Dataset.  Row
// indices may repeat, which is how bootstrap resampling is expressed.
func (ds *Dataset) Select(rows []int) *Dataset {

	cols := make([][]Dtype, len(ds.cols))
	for j, c := range ds.cols {
		nc := make([]Dtype, len(rows))
		for i, r := range rows {
			nc[i] = c[r]
		}
		cols[j] = nc
	}

	names := make([]string, len(ds.names))
	copy(names, ds.names)

	return &Dataset{names: names, cols: cols, yname: ds.yname, ypos: ds.ypos}
}

// X returns the predictor columns in storage order, paired with their names.
// The returned slices alias the Dataset storage and must not be modified.
func (ds *Dataset) X() ([]string, [][]Dtype) {

	var names []string
	var cols [][]Dtype
	for j := range ds.names {
		if j != ds.ypos {
			names = append(names, ds.names[j])
			cols = append(cols, ds.cols[j])
		}
	}
	return names, cols
}

// Row copies the predictor values of row i into buf, which must have length
// equal to the number of predictors.
func (ds *Dataset) Row(i int, buf []Dtype) {
	k := 0
	for j := range ds.cols {
		if j != ds.ypos {
			buf[k] = ds.cols[j][i]
			k++
		}
	}
}
