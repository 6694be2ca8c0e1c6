package bench

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func validConfig(data, out string) Config {
	return Config{
		DataPath:    data,
		Outcome:     "death",
		OutDir:      out,
		Repetition:  1,
		Fold:        2,
		TotFolds:    5,
		DeathWeight: 3,
		Subset:      SubsetAll,
		Trees:       20,
		Rounds:      20,
		Workers:     2,
	}
}

func TestValidate(t *testing.T) {

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing data", func(c *Config) { c.DataPath = "" }},
		{"missing out", func(c *Config) { c.OutDir = "" }},
		{"repetition zero", func(c *Config) { c.Repetition = 0 }},
		{"one fold", func(c *Config) { c.TotFolds = 1 }},
		{"fold zero", func(c *Config) { c.Fold = 0 }},
		{"fold too large", func(c *Config) { c.Fold = 6 }},
		{"weight zero", func(c *Config) { c.DeathWeight = 0 }},
		{"bad subset", func(c *Config) { c.Subset = "everything" }},
		{"admit without vars", func(c *Config) { c.Subset = SubsetAdmitOnly }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig("d.csv", "out")
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "want a ConfigError, got %T", err)
		})
	}

	cfg := validConfig("d.csv", "out")
	require.NoError(t, cfg.Validate())
}

// The split seed ignores death weight and variable subset so those runs are
// comparable on identical partitions.
func TestSeedDependsOnRepetitionAndFoldOnly(t *testing.T) {

	a := validConfig("d.csv", "out")
	b := a
	b.DeathWeight = 10
	b.Subset = SubsetAdmitOnly
	require.Equal(t, a.Seed(), b.Seed())

	c := a
	c.Fold = 3
	require.NotEqual(t, a.Seed(), c.Seed())

	d := a
	d.Repetition = 2
	require.NotEqual(t, a.Seed(), d.Seed())
}

// writeTestCSV simulates a small cleaned clinical dataset with numeric and
// categorical predictors and minority-class mortality.
func writeTestCSV(t *testing.T, dir string, n int) string {
	t.Helper()

	rng := rand.New(rand.NewSource(99))
	var sb strings.Builder
	sb.WriteString("age,sofa,sex,death\n")
	for i := 0; i < n; i++ {
		age := 40 + rng.Intn(50)
		sofa := rng.Intn(15)
		sex := "F"
		sexEff := 0.0
		if rng.Intn(2) == 1 {
			sex = "M"
			sexEff = 0.3
		}
		lp := -6 + 0.03*float64(age) + 0.25*float64(sofa) + sexEff
		death := "No"
		if rng.Float64() < 1/(1+math.Exp(-lp)) {
			death = "Yes"
		}
		fmt.Fprintf(&sb, "%d,%d,%s,%s\n", age, sofa, sex, death)
	}

	path := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return len(strings.Split(strings.TrimSpace(string(b)), "\n"))
}

func TestRunEndToEnd(t *testing.T) {

	dir := t.TempDir()
	data := writeTestCSV(t, dir, 400)
	out := filepath.Join(dir, "results")

	cfg := validConfig(data, out)
	require.NoError(t, Run(cfg, zerolog.Nop()))

	suffix := "r1_f2_w3_all"
	for _, table := range []string{"roc", "auc", "accuracy", "hl", "hl_bins", "inclusion", "importance", "coef"} {
		path := filepath.Join(out, fmt.Sprintf("%s_%s.csv", table, suffix))
		_, err := os.Stat(path)
		require.NoError(t, err, "missing artifact %s", table)
	}

	// One AUC row and one HL row per method; one accuracy row per
	// (method, cutoff) pair.
	require.Equal(t, 1+5, countLines(t, filepath.Join(out, "auc_"+suffix+".csv")))
	require.Equal(t, 1+5, countLines(t, filepath.Join(out, "hl_"+suffix+".csv")))
	require.Equal(t, 1+5*7, countLines(t, filepath.Join(out, "accuracy_"+suffix+".csv")))

	// All five methods appear in the AUC table.
	b, err := os.ReadFile(filepath.Join(out, "auc_"+suffix+".csv"))
	require.NoError(t, err)
	for _, m := range []string{"logit", "cart", "ctree", "forest", "boost"} {
		require.Contains(t, string(b), m)
	}
}

// With fewer deaths than folds, one test fold carries no deaths at all.
// The roc table must still hold one sentinel row per method.
func TestRunSingleClassTestFold(t *testing.T) {

	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("age,sofa,death\n")
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		death := "No"
		if i < 3 {
			death = "Yes"
		}
		fmt.Fprintf(&sb, "%d,%d,%s\n", 40+rng.Intn(50), rng.Intn(15), death)
	}
	data := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(data, []byte(sb.String()), 0o644))

	out := filepath.Join(dir, "results")
	cfg := validConfig(data, out)
	// Three deaths round-robin into groups 1..3 of five, so fold 5 tests
	// on survivors only.
	cfg.Fold = 5
	require.NoError(t, Run(cfg, zerolog.Nop()))

	b, err := os.ReadFile(filepath.Join(out, "roc_r1_f5_w3_all.csv"))
	require.NoError(t, err)
	require.Equal(t, 1+5, len(strings.Split(strings.TrimSpace(string(b)), "\n")))
	for _, m := range []string{"logit", "cart", "ctree", "forest", "boost"} {
		require.Contains(t, string(b), "NA,NA,NA,"+m)
	}
}

func TestRunAdmitSubset(t *testing.T) {

	dir := t.TempDir()
	data := writeTestCSV(t, dir, 300)
	out := filepath.Join(dir, "results")

	cfg := validConfig(data, out)
	cfg.Subset = SubsetAdmitOnly
	cfg.AdmitVars = []string{"age", "sex_M"}
	require.NoError(t, Run(cfg, zerolog.Nop()))

	// Only admission variables can appear in the coefficient table.
	b, err := os.ReadFile(filepath.Join(out, "coef_r1_f2_w3_admit_only.csv"))
	require.NoError(t, err)
	require.NotContains(t, string(b), "sofa")
}

func TestRunBadConfigWritesNothing(t *testing.T) {

	dir := t.TempDir()
	out := filepath.Join(dir, "results")

	cfg := validConfig(filepath.Join(dir, "clean.csv"), out)
	cfg.TotFolds = 1
	err := Run(cfg, zerolog.Nop())
	require.Error(t, err)

	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr), "output directory created despite config error")
}
