package gridsearch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/alloy-data/degradation.fit/internal/dataset"
	"github.com/alloy-data/degradation.fit/internal/model"
)

// makeTable builds a small synthetic degradation table: shift is a noisy-free
// function of two inputs plus flux/fluence columns for the feature hooks.
func makeTable(t *testing.T) *dataset.Table {
	t.Helper()

	n := 24
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	flux := make([]float64, n)
	fluence := make([]float64, n)
	shift := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i)
		x2[i] = float64(i%6) * 0.5
		flux[i] = 1e10 + float64(i)*1e9
		fluence[i] = 1e17 + float64(i)*1e16
		shift[i] = 2*x1[i] + 3*x2[i]
	}

	tbl := dataset.New()
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{"x1", x1}, {"x2", x2},
		{"flux_n_cm2_sec", flux}, {"fluence_n_cm2", fluence},
		{"shift", shift},
	} {
		if err := tbl.AddFeature(col.name, col.vals); err != nil {
			t.Fatalf("AddFeature(%s): %v", col.name, err)
		}
	}
	tbl.InputFeatures = []string{"x1", "x2"}
	tbl.TargetFeature = "shift"
	return tbl
}

func baseConfig(out string) Config {
	return Config{
		ParamSpecs:      []string{"model;n_neighbors;int;discrete;1:2:3"},
		LeaveOutPercent: 25,
		CVTests:         3,
		Seed:            0,
		SavePath:        out,
	}
}

func TestNewValidationConfig(t *testing.T) {
	tbl := makeTable(t)
	base := model.NewKNN()

	testCases := []struct {
		name     string
		folds    int
		leaveOut float64
		wantErr  error
	}{
		{"neither", 0, 0, ErrAmbiguousValidationConfig},
		{"both", 5, 25, ErrAmbiguousValidationConfig},
		{"folds_only", 5, 0, nil},
		{"leave_out_only", 0, 25, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig(t.TempDir())
			cfg.Folds = tc.folds
			cfg.LeaveOutPercent = tc.leaveOut
			_, err := New(cfg, base, tbl, nil)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("New: %v", err)
				}
			} else if !errors.Is(err, tc.wantErr) {
				t.Errorf("New error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewMissingTarget(t *testing.T) {
	tbl := makeTable(t)
	tbl.TargetFeature = ""

	_, err := New(baseConfig(t.TempDir()), model.NewKNN(), tbl, nil)
	if !errors.Is(err, ErrMissingTargetData) {
		t.Errorf("New error = %v, want ErrMissingTargetData", err)
	}
}

func TestNewRejectsFifthAxis(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.ParamSpecs = []string{
		"model;a;float;discrete;1",
		"model;b;float;discrete;1",
		"model;c;float;discrete;1",
		"model;d;float;discrete;1",
		"model;e;float;discrete;1",
	}
	_, err := New(cfg, model.NewKNN(), makeTable(t), nil)
	if !errors.Is(err, ErrTooManyAxes) {
		t.Errorf("New error = %v, want ErrTooManyAxes", err)
	}
}

func TestRunArtifacts(t *testing.T) {
	out := t.TempDir()
	search, err := New(baseConfig(out), model.NewKNN(), makeTable(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := search.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := len(outcome.Results), 3; got != want {
		t.Errorf("results = %d, want %d", got, want)
	}
	if got, want := len(outcome.Ranked), 3; got != want {
		t.Errorf("ranked = %d, want %d", got, want)
	}

	// Per-point artifact dirs.
	for i := range outcome.Results {
		path := filepath.Join(out, fmt.Sprintf("indiv_%d", i), "param_values")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		want := fmt.Sprintf("model, n_neighbors: %d", i+1)
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing %q, got %q", path, want, data)
		}
	}

	// Best configuration matches the serialized OPTIMIZED_PARAMS.
	best := outcome.Best()
	data, err := os.ReadFile(filepath.Join(out, "OPTIMIZED_PARAMS"))
	if err != nil {
		t.Fatalf("read OPTIMIZED_PARAMS: %v", err)
	}
	wantLine := fmt.Sprintf("model;n_neighbors;%s", FormatValue(best.Assignment["model"]["n_neighbors"]))
	if strings.TrimSpace(string(data)) != wantLine {
		t.Errorf("OPTIMIZED_PARAMS = %q, want %q", strings.TrimSpace(string(data)), wantLine)
	}

	// Ranked entries are in non-decreasing error order.
	for i := 1; i < len(outcome.Ranked); i++ {
		if outcome.Ranked[i].RMSE < outcome.Ranked[i-1].RMSE {
			t.Errorf("ranked[%d] %g below ranked[%d] %g",
				i, outcome.Ranked[i].RMSE, i-1, outcome.Ranked[i-1].RMSE)
		}
	}

	// README records the minimum-RMSE section.
	readme, err := os.ReadFile(filepath.Join(out, "README"))
	if err != nil {
		t.Fatalf("read README: %v", err)
	}
	if !strings.Contains(string(readme), "Minimum RMSE params") {
		t.Errorf("README missing ranking section: %q", readme)
	}
}

func TestResultsCSVRoundTrip(t *testing.T) {
	out := t.TempDir()
	search, err := New(baseConfig(out), model.NewKNN(), makeTable(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome, err := search.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	loaded, err := LoadResultsCSV(filepath.Join(out, "results.csv"))
	if err != nil {
		t.Fatalf("LoadResultsCSV: %v", err)
	}

	if len(loaded.Rows) != len(outcome.Table.Rows) {
		t.Fatalf("loaded %d rows, want %d", len(loaded.Rows), len(outcome.Table.Rows))
	}
	for i, row := range outcome.Table.Rows {
		got := loaded.Rows[i]
		if got.Index != row.Index {
			t.Errorf("row %d index = %d, want %d", i, got.Index, row.Index)
		}
		if got.RMSE != row.RMSE {
			t.Errorf("row %d rmse = %g, want %g", i, got.RMSE, row.RMSE)
		}
		for _, col := range outcome.Table.Columns {
			if got.Values[col] != row.Values[col] {
				t.Errorf("row %d %s = %g, want %g", i, col, got.Values[col], row.Values[col])
			}
		}
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	runWith := func(workers int) []Result {
		cfg := baseConfig(t.TempDir())
		cfg.Workers = workers
		search, err := New(cfg, model.NewKNN(), makeTable(t), nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		outcome, err := search.Run(context.Background())
		if err != nil {
			t.Fatalf("Run(workers=%d): %v", workers, err)
		}
		return outcome.Results
	}

	seq := runWith(1)
	par := runWith(4)

	for i := range seq {
		if seq[i].Index != par[i].Index || seq[i].RMSE != par[i].RMSE {
			t.Errorf("point %d: sequential %v, parallel %v", i, seq[i], par[i])
		}
	}
}

func TestRunWithFeatureAxis(t *testing.T) {
	out := t.TempDir()
	cfg := baseConfig(out)
	cfg.ParamSpecs = []string{
		"model;n_neighbors;int;discrete;1:2",
		"fluence.effective;pvalue;float;discrete;0.2:0.4",
	}
	cfg.FeatureSpecs = []string{"fluence.effective;ref_flux:3e10"}

	search, err := New(cfg, model.NewKNN(), makeTable(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome, err := search.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := len(outcome.Results), 4; got != want {
		t.Fatalf("results = %d, want %d", got, want)
	}
	found := false
	for _, col := range outcome.Table.Columns {
		if col == "fluence.effective.pvalue" {
			found = true
		}
	}
	if !found {
		t.Errorf("results table missing feature axis column: %v", outcome.Table.Columns)
	}
}

// failingModel errors during fit for alpha values at or above the threshold.
type failingModel struct {
	alpha float64
	mean  float64
}

func (f *failingModel) Name() string { return "failing" }
func (f *failingModel) Clone() model.Model {
	return &failingModel{alpha: f.alpha}
}
func (f *failingModel) SetParams(params map[string]any) error {
	if v, ok := params["alpha"].(float64); ok {
		f.alpha = v
	}
	return nil
}
func (f *failingModel) Fit(x *mat.Dense, y []float64) error {
	if f.alpha >= 100 {
		return fmt.Errorf("alpha %g is out of range", f.alpha)
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	f.mean = sum / float64(len(y))
	return nil
}
func (f *failingModel) Predict(x *mat.Dense) ([]float64, error) {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = f.mean
	}
	return out, nil
}

func TestRunFailFast(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.ParamSpecs = []string{"model;alpha;float;discrete;1:100"}

	search, err := New(cfg, &failingModel{}, makeTable(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := search.Run(context.Background()); err == nil {
		t.Error("Run succeeded, want failure from failing grid point")
	}
}

func TestRunSkipFailures(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.ParamSpecs = []string{"model;alpha;float;discrete;1:100"}
	cfg.SkipFailures = true

	search, err := New(cfg, &failingModel{}, makeTable(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome, err := search.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !math.IsNaN(outcome.Results[1].RMSE) {
		t.Errorf("failed point rmse = %g, want NaN", outcome.Results[1].RMSE)
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("warnings = %v, want one entry", outcome.Warnings)
	}
	// The failed point must never rank above the good one.
	if outcome.Best().Index != 0 {
		t.Errorf("best index = %d, want 0", outcome.Best().Index)
	}
}
