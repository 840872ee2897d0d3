// Command gridfit runs a hyperparameter grid search for a regression model
// over a materials-degradation dataset.
//
// Example:
//
//	gridfit -data dbtt.csv -inputs wt_cu,wt_ni,temp_c -target delta_sigma \
//	  -model kernel_ridge \
//	  -params "model;alpha;float;continuous-log;-6:0:7,model;gamma;float;continuous-log;-3:3:7" \
//	  -folds 5 -cv-tests 10 -workers 4 -seed 0 -out results/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alloy-data/degradation.fit/internal/dataset"
	"github.com/alloy-data/degradation.fit/internal/gridsearch"
	"github.com/alloy-data/degradation.fit/internal/model"
	"github.com/alloy-data/degradation.fit/internal/plotting"
	"github.com/alloy-data/degradation.fit/internal/report"
	"github.com/alloy-data/degradation.fit/internal/storage/sqlite"
)

func main() {
	dataPath := flag.String("data", "", "Dataset CSV file")
	inputs := flag.String("inputs", "", "Comma-separated input feature columns")
	target := flag.String("target", "", "Target column")
	modelName := flag.String("model", "kernel_ridge", "Model: kernel_ridge or knn")

	params := flag.String("params", "", "Comma-separated axis specs (location;name;type;range_type;grid_info)")
	featureArgs := flag.String("features", "", "Comma-separated fixed feature args (location;name:value;...)")

	folds := flag.Int("folds", 0, "Number of CV folds (k-fold strategy)")
	leaveOut := flag.Float64("leave-out", 0, "Percent of rows to hold out (shuffle-split strategy)")
	cvTests := flag.Int("cv-tests", 5, "CV repetitions per grid point")

	workers := flag.Int("workers", 1, "Parallel evaluation workers")
	seed := flag.Int64("seed", -1, "Split seed; negative for time-based randomness")
	limit := flag.Int("limit", 0, "Population size limit (0 = default)")
	skipFailures := flag.Bool("skip-failures", false, "Record failed grid points as NaN instead of aborting")

	out := flag.String("out", "gridfit-out", "Output directory")
	dbPath := flag.String("db", "", "Optional sqlite database to persist the run")
	htmlReport := flag.Bool("html", false, "Also write an interactive report.html")
	flag.Parse()

	if *dataPath == "" || *inputs == "" || *target == "" || *params == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tbl, err := dataset.Load(*dataPath, splitList(*inputs), *target)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	base, err := model.New(*modelName)
	if err != nil {
		log.Fatal(err)
	}

	cfg := gridsearch.Config{
		ParamSpecs:      splitList(*params),
		FeatureSpecs:    splitList(*featureArgs),
		Folds:           *folds,
		LeaveOutPercent: *leaveOut,
		CVTests:         *cvTests,
		Workers:         *workers,
		Seed:            *seed,
		SavePath:        *out,
		PopulationLimit: *limit,
		SkipFailures:    *skipFailures,
	}

	search, err := gridsearch.New(cfg, base, tbl, plotting.PNG{})
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	log.Printf("evaluating %d grid points with %d workers", search.Grid().Size(), *workers)

	outcome, err := search.Run(ctx)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	best := outcome.Best()
	log.Printf("best configuration: index %d, rmse %.4f", best.Index, best.RMSE)

	if *htmlReport {
		path := *out + "/report.html"
		if err := report.WriteHTML(path, outcome.Grid, outcome.Table); err != nil {
			log.Fatalf("html report: %v", err)
		}
		log.Printf("wrote %s", path)
	}

	if *dbPath != "" {
		if err := persist(*dbPath, *modelName, cfg, outcome); err != nil {
			log.Fatalf("persist: %v", err)
		}
	}
}

func persist(dbPath, modelName string, cfg gridsearch.Config, outcome *gridsearch.Outcome) error {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	strategy := "kfold"
	if cfg.LeaveOutPercent > 0 {
		strategy = "leave_out_percent"
	}
	params, err := json.Marshal(cfg.ParamSpecs)
	if err != nil {
		return err
	}

	best := outcome.Best()
	run := &sqlite.SearchRun{
		Model:          modelName,
		Strategy:       strategy,
		CVTests:        cfg.CVTests,
		Seed:           cfg.Seed,
		PopulationSize: outcome.Grid.Size(),
		BestIndex:      best.Index,
		BestRMSE:       best.RMSE,
		ParamsJSON:     params,
	}

	store := sqlite.NewRunStore(db)
	if err := store.InsertRun(run); err != nil {
		return err
	}
	if err := store.InsertResults(run.RunID, outcome); err != nil {
		return err
	}
	log.Printf("persisted run %s to %s", run.RunID, dbPath)
	return nil
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
