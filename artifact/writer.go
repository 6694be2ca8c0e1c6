// Package artifact serializes every result table of one run to tagged CSV
// files.  Each run owns a unique (repetition, fold, death weight, subset)
// tag combination, so concurrent sibling runs never write the same file.
package artifact

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/gnguy/mph-thesis-ml/attrib"
	"github.com/gnguy/mph-thesis-ml/metrics"
	"github.com/gnguy/mph-thesis-ml/model"
)

// Tags identifies one run of the pipeline.  Every emitted row carries the
// tag values so compiled result sets remain self-describing.
type Tags struct {
	Repetition  int
	Fold        int
	DeathWeight int
	Subset      string
}

// Suffix returns the file-name tag, e.g. "r2_f3_w10_all".
func (t Tags) Suffix() string {
	return fmt.Sprintf("r%d_f%d_w%d_%s", t.Repetition, t.Fold, t.DeathWeight, t.Subset)
}

func (t Tags) header() []string {
	return []string{"repetition", "fold", "death_wt", "subset"}
}

func (t Tags) values() []string {
	return []string{
		strconv.Itoa(t.Repetition),
		strconv.Itoa(t.Fold),
		strconv.Itoa(t.DeathWeight),
		t.Subset,
	}
}

// Writer emits the artifact set for one run under a single directory.
type Writer struct {
	dir  string
	tags Tags
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(dir string, tags Tags) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return &Writer{dir: dir, tags: tags}, nil
}

// ROCRow is one staircase vertex for one method.
type ROCRow struct {
	Method string
	Point  metrics.Point
}

// AUCRow is the scalar AUC for one method; NaN marks an undefined value.
type AUCRow struct {
	Method string
	AUC    float64
}

// AccuracyRow is one (method, cutoff) accuracy cell.
type AccuracyRow struct {
	Method string
	Cell   metrics.CutoffAccuracy
}

// HLRow is the Hosmer-Lemeshow statistic for one method.
type HLRow struct {
	Method string
	Stat   float64
	P      float64
}

// HLBinRow is one Hosmer-Lemeshow diagnostic bin for one method.
type HLBinRow struct {
	Method string
	Bin    metrics.HLBin
}

// WriteROC writes the roc table.
func (w *Writer) WriteROC(rows []ROCRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{fmtF(r.Point.FPR), fmtF(r.Point.TPR), fmtF(r.Point.Threshold), r.Method}
	}
	return w.write("roc", []string{"fpr", "tpr", "threshold", "method"}, recs)
}

// WriteAUC writes the auc table.
func (w *Writer) WriteAUC(rows []AUCRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{r.Method, fmtF(r.AUC)}
	}
	return w.write("auc", []string{"method", "auc"}, recs)
}

// WriteAccuracy writes the accuracy table.
func (w *Writer) WriteAccuracy(rows []AccuracyRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{r.Method, fmtF(r.Cell.Cutoff), fmtF(r.Cell.Threshold), fmtF(r.Cell.Accuracy)}
	}
	return w.write("accuracy", []string{"method", "cutoff", "threshold", "accuracy"}, recs)
}

// WriteHL writes the hl statistic table.
func (w *Writer) WriteHL(rows []HLRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{r.Method, fmtF(r.Stat), fmtF(r.P)}
	}
	return w.write("hl", []string{"method", "statistic", "p_value"}, recs)
}

// WriteHLBins writes the hl_bins diagnostic table.
func (w *Writer) WriteHLBins(rows []HLBinRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{
			fmt.Sprintf("[%s,%s]", fmtF(r.Bin.Lo), fmtF(r.Bin.Hi)),
			r.Method,
			fmtF(r.Bin.ObsNeg), fmtF(r.Bin.ObsPos),
			fmtF(r.Bin.ExpNeg), fmtF(r.Bin.ExpPos),
		}
	}
	return w.write("hl_bins",
		[]string{"prob_range", "method", "observed_neg", "observed_pos", "expected_neg", "expected_pos"},
		recs)
}

// WriteInclusion writes the inclusion table.
func (w *Writer) WriteInclusion(rows []attrib.InclusionRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{r.Variable, r.Method, strconv.FormatBool(r.Included)}
	}
	return w.write("inclusion", []string{"variable", "method", "included"}, recs)
}

// WriteImportance writes the importance table.
func (w *Writer) WriteImportance(rows []attrib.ImportanceRow) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		v := r.Variable
		if v == "" {
			v = "NA"
		}
		k := r.Kind
		if k == "" {
			k = "NA"
		}
		recs[i] = []string{v, r.Method, k, fmtF(r.Value)}
	}
	return w.write("importance", []string{"variable", "method", "importance_type", "value"}, recs)
}

// WriteCoef writes the logistic coefficient table.
func (w *Writer) WriteCoef(method string, coef []model.Coefficient) error {
	recs := make([][]string, len(coef))
	for i, c := range coef {
		recs[i] = []string{c.Name, method, fmtF(c.Est), fmtF(c.SE), fmtF(c.Z), fmtF(c.P)}
	}
	return w.write("coef", []string{"variable", "method", "estimate", "std_err", "z", "p_value"}, recs)
}

// write appends the run tags to every row and writes one CSV table through
// a gota dataframe.
func (w *Writer) write(table string, header []string, recs [][]string) error {

	if len(recs) == 0 {
		// Keep the artifact set complete: an empty table still gets a
		// single all-NA row under the run tags.
		na := make([]string, len(header))
		for i := range na {
			na[i] = "NA"
		}
		recs = [][]string{na}
	}

	all := make([][]string, 0, len(recs)+1)
	all = append(all, append(header, w.tags.header()...))
	tagv := w.tags.values()
	for _, r := range recs {
		all = append(all, append(r, tagv...))
	}

	// An empty nanValues list keeps the literal NA sentinels intact;
	// gota would otherwise re-emit them as NaN.
	df := dataframe.LoadRecords(all, dataframe.DetectTypes(false), dataframe.NaNValues([]string{}))
	if df.Err != nil {
		return fmt.Errorf("artifact: build %s: %w", table, df.Err)
	}

	name := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", table, w.tags.Suffix()))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("artifact: write %s: %w", table, err)
	}

	return f.Close()
}

// fmtF renders a float for CSV output, with NaN as the NA sentinel.
func fmtF(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
