package gridsearch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alloy-data/degradation.fit/internal/cv"
	"github.com/alloy-data/degradation.fit/internal/dataset"
	"github.com/alloy-data/degradation.fit/internal/model"
)

// Config controls one grid-search run. Exactly one of Folds and
// LeaveOutPercent selects the cross-validation strategy.
type Config struct {
	// ParamSpecs are the optimized-axis strings
	// ("location;name;type;range_type;grid_info").
	ParamSpecs []string

	// FeatureSpecs are fixed feature-argument strings
	// ("location;name:value;..."), merged into every grid point.
	FeatureSpecs []string

	Folds           int     // k-fold CV when > 0
	LeaveOutPercent float64 // shuffle-split CV when > 0
	CVTests         int     // split repetitions per point; default 5

	// Workers > 1 evaluates grid points on a worker pool.
	Workers int

	// Seed < 0 uses time-based split randomness; otherwise every point's
	// splitter is seeded with Seed+index, making runs bit-identical at any
	// worker count.
	Seed int64

	SavePath string

	PopulationLimit int // 0 = DefaultPopulationLimit
	MaxAxes         int // 0 = DefaultMaxAxes

	// SkipFailures records a failed point as NaN and continues instead of
	// aborting the run.
	SkipFailures bool
}

// Outcome is everything one completed run produced.
type Outcome struct {
	Grid     *Grid
	Results  []Result
	Ranked   []Ranked
	Table    *FlatTable
	Warnings []string
}

// Best returns the lowest-error configuration.
func (o *Outcome) Best() Ranked { return o.Ranked[0] }

// Search is one configured grid-search run. All validation happens in New,
// before any model fitting; Run only executes and reports.
type Search struct {
	cfg       Config
	grid      *Grid
	evaluator *Evaluator
	plotter   Plotter
	readme    []string
}

// New validates the configuration and enumerates the grid. All setup errors
// surface here, before any model fitting: bad specs, duplicate or colliding
// parameters, oversized populations, ambiguous CV config, and missing
// target data.
func New(cfg Config, base model.Model, tbl *dataset.Table, plotter Plotter) (*Search, error) {
	if cfg.CVTests <= 0 {
		cfg.CVTests = 5
	}

	axes, err := ParseAxes(cfg.ParamSpecs, cfg.MaxAxes)
	if err != nil {
		return nil, err
	}
	fixed, err := ParseFixedArgs(cfg.FeatureSpecs)
	if err != nil {
		return nil, err
	}
	grid, err := Enumerate(axes, fixed, cfg.PopulationLimit)
	if err != nil {
		return nil, err
	}

	hasFolds := cfg.Folds > 0
	hasLeaveOut := cfg.LeaveOutPercent > 0
	if hasFolds == hasLeaveOut {
		return nil, fmt.Errorf("%w: folds=%d, leave-out=%g", ErrAmbiguousValidationConfig, cfg.Folds, cfg.LeaveOutPercent)
	}

	if !tbl.HasTarget() {
		return nil, ErrMissingTargetData
	}

	var strategy cv.Strategy
	if hasFolds {
		strategy = cv.KFold{Folds: cfg.Folds, Tests: cfg.CVTests}
	} else {
		strategy = cv.LeaveOutPercent{Percent: cfg.LeaveOutPercent, Tests: cfg.CVTests}
	}

	s := &Search{
		cfg:  cfg,
		grid: grid,
		evaluator: &Evaluator{
			Base:     base,
			Table:    tbl,
			Strategy: strategy,
			SavePath: cfg.SavePath,
			Seed:     cfg.Seed,
		},
		plotter: plotter,
	}
	s.note("----- CV setup -----")
	s.note("%d CV tests via %s", cfg.CVTests, strategy.Name())
	s.note("population size %d over %d axes", grid.Size(), len(axes))
	return s, nil
}

// Grid exposes the enumerated population.
func (s *Search) Grid() *Grid { return s.grid }

// Run evaluates the whole population, ranks the results, and writes the
// run artifacts: OPTIMIZED_PARAMS, results.csv, one plot per axis, and a
// README describing what was produced.
func (s *Search) Run(ctx context.Context) (*Outcome, error) {
	if s.cfg.SavePath != "" {
		if err := os.MkdirAll(s.cfg.SavePath, 0o755); err != nil {
			return nil, fmt.Errorf("create save path: %w", err)
		}
	}

	results, warnings, err := s.evaluatePopulation(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	ranked := rankResults(s.grid.Points, results)
	s.note("----- Minimum RMSE params -----")
	for _, r := range ranked {
		s.note("%s", describeRanked(r))
	}

	table := flattenResults(s.grid, results)

	outcome := &Outcome{
		Grid:     s.grid,
		Results:  results,
		Ranked:   ranked,
		Table:    table,
		Warnings: warnings,
	}

	if s.cfg.SavePath == "" {
		return outcome, nil
	}

	if err := WriteOptimizedParams(s.cfg.SavePath, outcome.Best()); err != nil {
		return nil, err
	}
	s.note("OPTIMIZED_PARAMS written")

	csvPath := filepath.Join(s.cfg.SavePath, "results.csv")
	if err := table.WriteCSV(csvPath); err != nil {
		return nil, err
	}
	s.note("results.csv written")

	if s.plotter != nil {
		plots, err := plotAxes(s.plotter, s.cfg.SavePath, s.grid, table)
		if err != nil {
			return nil, err
		}
		for _, name := range plots {
			s.note("plot %s created", name)
		}
	}

	if err := s.writeReadme(); err != nil {
		return nil, err
	}
	return outcome, nil
}

// note appends one line to the run README.
func (s *Search) note(format string, args ...any) {
	s.readme = append(s.readme, fmt.Sprintf(format, args...))
}

func (s *Search) writeReadme() error {
	path := filepath.Join(s.cfg.SavePath, "README")
	content := strings.Join(s.readme, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write README: %w", err)
	}
	return nil
}
