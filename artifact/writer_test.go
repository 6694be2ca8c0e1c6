package artifact

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnguy/mph-thesis-ml/attrib"
	"github.com/gnguy/mph-thesis-ml/metrics"
)

func testTags() Tags {
	return Tags{Repetition: 2, Fold: 3, DeathWeight: 10, Subset: "all"}
}

func TestSuffix(t *testing.T) {
	require.Equal(t, "r2_f3_w10_all", testTags().Suffix())
}

func readFile(t *testing.T, dir, table string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, table+"_r2_f3_w10_all.csv"))
	require.NoError(t, err)
	return string(b)
}

func TestWriteAUC(t *testing.T) {

	dir := t.TempDir()
	w, err := NewWriter(dir, testTags())
	require.NoError(t, err)

	rows := []AUCRow{
		{Method: "logit", AUC: 0.8125},
		{Method: "forest", AUC: math.NaN()},
	}
	require.NoError(t, w.WriteAUC(rows))

	got := readFile(t, dir, "auc")
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "method,auc,repetition,fold,death_wt,subset", lines[0])
	require.Contains(t, lines[1], "logit,0.8125,2,3,10,all")
	require.Contains(t, lines[2], "forest,NA,2,3,10,all")
}

func TestWriteHLBins(t *testing.T) {

	dir := t.TempDir()
	w, err := NewWriter(dir, testTags())
	require.NoError(t, err)

	rows := []HLBinRow{{
		Method: "cart",
		Bin: metrics.HLBin{
			Lo: 0.1, Hi: 0.25,
			ObsNeg: 30, ObsPos: 10,
			ExpNeg: 32.5, ExpPos: 7.5,
		},
	}}
	require.NoError(t, w.WriteHLBins(rows))

	got := readFile(t, dir, "hl_bins")
	require.Contains(t, got, "prob_range,method,observed_neg,observed_pos,expected_neg,expected_pos")
	require.Contains(t, got, "\"[0.1,0.25]\",cart,30,10,32.5,7.5")
}

// Tables with no rows still appear in the artifact set, as a single all-NA
// row under the run tags.
func TestWriteEmptyTable(t *testing.T) {

	dir := t.TempDir()
	w, err := NewWriter(dir, testTags())
	require.NoError(t, err)

	require.NoError(t, w.WriteInclusion(nil))

	got := readFile(t, dir, "inclusion")
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "NA,NA,NA,2,3,10,all")
}

func TestWriteImportancePlaceholder(t *testing.T) {

	dir := t.TempDir()
	w, err := NewWriter(dir, testTags())
	require.NoError(t, err)

	rows := []attrib.ImportanceRow{{Variable: "", Method: "cart", Kind: "", Value: math.NaN()}}
	require.NoError(t, w.WriteImportance(rows))

	got := readFile(t, dir, "importance")
	require.Contains(t, got, "NA,cart,NA,NA")
}
