// Package bench orchestrates one cross-validation run: load, split,
// reweight, fit the five classifiers, evaluate, and write the tagged
// artifact set.
package bench

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/gnguy/mph-thesis-ml/artifact"
	"github.com/gnguy/mph-thesis-ml/attrib"
	"github.com/gnguy/mph-thesis-ml/dataset"
	"github.com/gnguy/mph-thesis-ml/metrics"
	"github.com/gnguy/mph-thesis-ml/model"
	"github.com/gnguy/mph-thesis-ml/sample"
)

// Run executes one full (repetition, fold, death weight, subset) pass.  A
// ConfigError aborts before any fitting; any single adapter failure is
// logged and replaced by sentinel outputs, so a validated run always
// produces its complete artifact set.
func Run(cfg Config, log zerolog.Logger) error {

	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := load(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Int("rows", ds.NumObs()).
		Int("predictors", len(ds.Predictors())).
		Int("repetition", cfg.Repetition).
		Int("fold", cfg.Fold).
		Int("death_wt", cfg.DeathWeight).
		Str("subset", cfg.Subset).
		Msg("run starting")

	train, test, err := sample.StratifiedKFold(ds, cfg.TotFolds, cfg.Fold, cfg.Seed())
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed() + 1))
	train, err = sample.Oversample(train, cfg.DeathWeight, rng)
	if err != nil {
		return err
	}
	log.Info().Int("train", train.NumObs()).Int("test", test.NumObs()).Msg("split ready")

	results := fitAll(cfg, train, test, log)

	return report(cfg, test, results, log)
}

func load(cfg Config) (*dataset.Dataset, error) {

	f, err := os.Open(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	defer f.Close()

	ds, err := dataset.FromCSV(f, cfg.Outcome)
	if err != nil {
		return nil, err
	}

	if cfg.Subset == SubsetAdmitOnly {
		return ds.Subset(cfg.AdmitVars)
	}
	return ds, nil
}

// fitAll runs the five adapters concurrently.  The adapters share the same
// immutable data and each writes only its own result slot; a failure in one
// never cancels its siblings.
func fitAll(cfg Config, train, test *dataset.Dataset, log zerolog.Logger) []*model.Result {

	st := model.DefaultSettings(cfg.Seed() + 2)
	if cfg.Trees > 0 {
		st.Trees = cfg.Trees
	}
	if cfg.Rounds > 0 {
		st.Rounds = cfg.Rounds
	}
	if cfg.Workers > 0 {
		st.Workers = cfg.Workers
	}

	adapters := model.Adapters(st)
	results := make([]*model.Result, len(adapters))

	var g errgroup.Group
	for i, ad := range adapters {
		i, ad := i, ad
		g.Go(func() error {
			start := time.Now()
			res, err := ad.Fit(train, test)
			if err != nil {
				log.Warn().Err(err).Stringer("method", ad.Method()).Msg("adapter failed")
				results[i] = &model.Result{Method: ad.Method()}
				return nil
			}
			log.Info().
				Stringer("method", ad.Method()).
				Dur("elapsed", time.Since(start)).
				Msg("adapter fit")
			results[i] = res
			return nil
		})
	}
	// Adapter errors are absorbed into sentinel results above.
	_ = g.Wait()

	return results
}

// report evaluates every result against the held-out labels and writes the
// artifact set.
func report(cfg Config, test *dataset.Dataset, results []*model.Result, log zerolog.Logger) error {

	y := test.Y()
	tags := artifact.Tags{
		Repetition:  cfg.Repetition,
		Fold:        cfg.Fold,
		DeathWeight: cfg.DeathWeight,
		Subset:      cfg.Subset,
	}

	w, err := artifact.NewWriter(cfg.OutDir, tags)
	if err != nil {
		return err
	}

	var (
		rocRows []artifact.ROCRow
		aucRows []artifact.AUCRow
		accRows []artifact.AccuracyRow
		hlRows  []artifact.HLRow
		binRows []artifact.HLBinRow
		incRows []attrib.InclusionRow
		impRows []attrib.ImportanceRow
		coef    []model.Coefficient
		summary [][]string
	)

	for _, res := range results {

		m := res.Method.String()

		if res.Probs == nil {
			// The adapter failed: emit sentinels for every metric.
			rocRows = append(rocRows, artifact.ROCRow{Method: m, Point: naPoint()})
			aucRows = append(aucRows, artifact.AUCRow{Method: m, AUC: math.NaN()})
			for _, cut := range metrics.Cutoffs {
				accRows = append(accRows, artifact.AccuracyRow{Method: m, Cell: metrics.CutoffAccuracy{
					Cutoff: cut, Threshold: math.NaN(), Accuracy: math.NaN(),
				}})
			}
			hlRows = append(hlRows, artifact.HLRow{Method: m, Stat: math.NaN(), P: 0})
			binRows = append(binRows, artifact.HLBinRow{Method: m, Bin: naBin()})
			impRows = append(impRows, attrib.Importance(res)...)
			summary = append(summary, []string{m, "NA", "NA", "NA"})
			continue
		}

		curve := metrics.Curve(res.Probs, y)
		if curve == nil {
			// Single-class test labels leave the curve undefined; keep
			// one sentinel row so every method appears in the table.
			rocRows = append(rocRows, artifact.ROCRow{Method: m, Point: naPoint()})
		}
		for _, p := range curve {
			rocRows = append(rocRows, artifact.ROCRow{Method: m, Point: p})
		}

		auc := metrics.AUC(curve)
		aucRows = append(aucRows, artifact.AUCRow{Method: m, AUC: auc})

		acc := metrics.AccuracyAtCutoffs(res.Probs, y, metrics.Cutoffs)
		peak := math.Inf(-1)
		for _, cell := range acc {
			accRows = append(accRows, artifact.AccuracyRow{Method: m, Cell: cell})
			if cell.Accuracy > peak {
				peak = cell.Accuracy
			}
		}

		hl := metrics.HosmerLemeshow(res.Probs, y, metrics.HLGroups)
		hlRows = append(hlRows, artifact.HLRow{Method: m, Stat: hl.Stat, P: hl.P})
		for _, b := range hl.Bins {
			binRows = append(binRows, artifact.HLBinRow{Method: m, Bin: b})
		}
		if hl.Degenerate() {
			log.Warn().Str("method", m).Msg("constant predictions, HL test not applicable")
		}

		incRows = append(incRows, attrib.Inclusion(res)...)
		impRows = append(impRows, attrib.Importance(res)...)
		if res.Method == model.Logit {
			coef = res.Coef
		}

		summary = append(summary, []string{
			m,
			fmt.Sprintf("%.4f", auc),
			fmt.Sprintf("%.4f", hl.P),
			fmt.Sprintf("%.4f", peak),
		})
	}

	for _, werr := range []error{
		w.WriteROC(rocRows),
		w.WriteAUC(aucRows),
		w.WriteAccuracy(accRows),
		w.WriteHL(hlRows),
		w.WriteHLBins(binRows),
		w.WriteInclusion(incRows),
		w.WriteImportance(impRows),
		w.WriteCoef(model.Logit.String(), coef),
	} {
		if werr != nil {
			return werr
		}
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"Method", "AUC", "HL p", "Peak acc"})
	for _, row := range summary {
		tbl.Append(row)
	}
	tbl.Render()

	log.Info().Str("tag", tags.Suffix()).Msg("artifacts written")
	return nil
}

func naPoint() metrics.Point {
	return metrics.Point{FPR: math.NaN(), TPR: math.NaN(), Threshold: math.NaN()}
}

func naBin() metrics.HLBin {
	return metrics.HLBin{
		Lo: math.NaN(), Hi: math.NaN(),
		ObsNeg: math.NaN(), ObsPos: math.NaN(),
		ExpNeg: math.NaN(), ExpPos: math.NaN(),
	}
}
