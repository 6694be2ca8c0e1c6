package bench

import (
	"fmt"
)

// Variable-subset configurations.  SubsetAll fits on every predictor in the
// dataset; SubsetAdmitOnly restricts to the variables known at admission.
const (
	SubsetAll       = "all"
	SubsetAdmitOnly = "admit_only"
)

// ConfigError reports an invalid run configuration.  It is the only error
// that prevents a run from producing its artifact set.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return "bench: " + e.msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// Config holds every parameter of one (repetition, fold, death weight,
// variable subset) run.  It is threaded explicitly into Run; nothing reads
// ambient process state.
type Config struct {
	// DataPath is the cleaned, imputed input CSV.
	DataPath string

	// Outcome is the binary outcome column name.
	Outcome string

	// OutDir receives the tagged artifact files.
	OutDir string

	Repetition  int
	Fold        int
	TotFolds    int
	DeathWeight int

	// Subset is SubsetAll or SubsetAdmitOnly.
	Subset string

	// AdmitVars lists the admission-time predictors used when Subset is
	// SubsetAdmitOnly.
	AdmitVars []string

	// Trees, Rounds and Workers override the model defaults when
	// positive.
	Trees   int
	Rounds  int
	Workers int
}

// Validate checks the run parameters.  It must pass before any data is
// loaded or any model is fit.
func (c *Config) Validate() error {

	if c.DataPath == "" {
		return configErrorf("data path is required")
	}
	if c.OutDir == "" {
		return configErrorf("output directory is required")
	}
	if c.Outcome == "" {
		return configErrorf("outcome column name is required")
	}
	if c.Repetition < 1 {
		return configErrorf("repetition=%d, need at least 1", c.Repetition)
	}
	if c.TotFolds < 2 {
		return configErrorf("tot_folds=%d, need at least 2", c.TotFolds)
	}
	if c.Fold < 1 || c.Fold > c.TotFolds {
		return configErrorf("fold=%d out of range [1, %d]", c.Fold, c.TotFolds)
	}
	if c.DeathWeight < 1 {
		return configErrorf("death_wt=%d, need at least 1", c.DeathWeight)
	}

	switch c.Subset {
	case SubsetAll:
	case SubsetAdmitOnly:
		if len(c.AdmitVars) == 0 {
			return configErrorf("subset %s requires an admission variable list", c.Subset)
		}
	default:
		return configErrorf("unknown variable subset %q", c.Subset)
	}

	return nil
}

// Seed derives the split seed from the repetition and fold alone, so runs
// differing only in death weight or variable subset share identical
// partitions and can be compared head to head.
func (c *Config) Seed() uint64 {
	return uint64(c.Repetition)<<20 + uint64(c.Fold)
}
