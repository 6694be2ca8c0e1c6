// Command mortcv runs one cross-validated mortality-prediction benchmark:
// it trains the five classifiers on one stratified training fold of the
// cleaned dataset and writes the tagged evaluation artifacts for the
// held-out fold.  An outer driver invokes it once per (repetition, fold,
// death weight, variable subset) combination.
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gnguy/mph-thesis-ml/bench"
)

func main() {

	var (
		data    = flag.String("data", "", "cleaned, imputed input CSV")
		out     = flag.String("out", "results", "output directory for artifact CSVs")
		outcome = flag.String("outcome", "death", "binary outcome column")
		rep     = flag.Int("rep", 1, "repetition number")
		fold    = flag.Int("fold", 1, "test fold index (1-based)")
		folds   = flag.Int("folds", 10, "total number of folds")
		wt      = flag.Int("wt", 1, "death-class resampling weight")
		subset  = flag.String("subset", bench.SubsetAll, "variable subset: all or admit_only")
		admit   = flag.String("admit", "", "comma-separated admission variables for admit_only")
		trees   = flag.Int("trees", 0, "random forest size (0 = default)")
		rounds  = flag.Int("rounds", 0, "boosting rounds (0 = default)")
		workers = flag.Int("workers", 0, "forest worker goroutines (0 = default)")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := bench.Config{
		DataPath:    *data,
		Outcome:     *outcome,
		OutDir:      *out,
		Repetition:  *rep,
		Fold:        *fold,
		TotFolds:    *folds,
		DeathWeight: *wt,
		Subset:      *subset,
		AdmitVars:   splitList(*admit),
		Trees:       *trees,
		Rounds:      *rounds,
		Workers:     *workers,
	}

	if err := bench.Run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
