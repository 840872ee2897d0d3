package gridsearch

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alloy-data/degradation.fit/internal/cv"
	"github.com/alloy-data/degradation.fit/internal/dataset"
	"github.com/alloy-data/degradation.fit/internal/features"
	"github.com/alloy-data/degradation.fit/internal/model"
)

// Result is the cross-validated score of one grid point.
type Result struct {
	Index int
	RMSE  float64
	Stats cv.Stats
}

// Evaluator scores individual grid points against a base model and dataset.
// The base model and table are shared immutable inputs; every evaluation
// works on its own clones.
type Evaluator struct {
	Base     model.Model
	Table    *dataset.Table
	Strategy cv.Strategy

	// SavePath is the run output directory; each point writes its
	// parameter dump to SavePath/indiv_<index>/param_values. Empty skips
	// the artifact.
	SavePath string

	// Seed < 0 means time-seeded splits. Otherwise point index i uses
	// Seed+i, so results are identical at any worker count.
	Seed int64
}

// Evaluate scores one grid point: clone the model, apply its
// hyperparameters, build the feature-augmented dataset clone, run the
// cross-validation strategy, and persist the parameter dump.
func (e *Evaluator) Evaluate(p Point) (Result, error) {
	m := e.Base.Clone()
	if hyper := p.Assignment[LocationModel]; len(hyper) > 0 {
		if err := m.SetParams(hyper); err != nil {
			return Result{}, fmt.Errorf("point %d: %w", p.Index, err)
		}
	}

	tbl, err := e.buildTable(p)
	if err != nil {
		return Result{}, fmt.Errorf("point %d: %w", p.Index, err)
	}

	x, y, err := tbl.Matrices()
	if err != nil {
		return Result{}, fmt.Errorf("point %d: %w", p.Index, err)
	}
	if len(y) == 0 {
		return Result{}, fmt.Errorf("point %d: %w", p.Index, ErrMissingTargetData)
	}

	rng := e.splitRand(p.Index)
	stats, err := e.Strategy.Run(x, y, m, rng)
	if err != nil {
		return Result{}, fmt.Errorf("point %d: %w", p.Index, err)
	}

	if e.SavePath != "" {
		if err := writeParamValues(filepath.Join(e.SavePath, fmt.Sprintf("indiv_%d", p.Index)), p); err != nil {
			return Result{}, fmt.Errorf("point %d: %w", p.Index, err)
		}
	}

	return Result{
		Index: p.Index,
		RMSE:  stats[e.Strategy.AggregateKey()],
		Stats: stats,
	}, nil
}

func (e *Evaluator) splitRand(index int) *rand.Rand {
	if e.Seed < 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(e.Seed + int64(index)))
}

// buildTable clones the base table and applies every feature hook named by
// the point's non-model locations, in sorted location order for
// determinism. Each hook's output column joins the input features.
func (e *Evaluator) buildTable(p Point) (*dataset.Table, error) {
	tbl := e.Table.Clone()

	locs := make([]string, 0, len(p.Assignment))
	for loc := range p.Assignment {
		if loc == LocationModel {
			continue
		}
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	for _, loc := range locs {
		hook, err := features.Lookup(loc)
		if err != nil {
			return nil, err
		}

		args := make(map[string]string, len(p.Assignment[loc]))
		for name, v := range p.Assignment[loc] {
			args[name] = FormatValue(v)
		}

		name, col, err := hook(tbl, args)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", loc, err)
		}
		if err := tbl.AddFeature(name, col); err != nil {
			return nil, fmt.Errorf("feature %s: %w", loc, err)
		}
		tbl.InputFeatures = append(tbl.InputFeatures, name)
	}
	return tbl, nil
}

// writeParamValues dumps one point's assignment to
// <dir>/param_values as "location, name: value" lines.
func writeParamValues(dir string, p Point) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create point dir: %w", err)
	}

	var b strings.Builder
	for _, loc := range sortedKeys(p.Assignment) {
		for _, name := range sortedKeys(p.Assignment[loc]) {
			fmt.Fprintf(&b, "%s, %s: %s\n", loc, name, FormatValue(p.Assignment[loc][name]))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "param_values"), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write param_values: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
