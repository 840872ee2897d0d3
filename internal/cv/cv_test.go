package cv

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/alloy-data/degradation.fit/internal/model"
)

// meanModel predicts the training-set mean everywhere. Its error is a pure
// function of the split, which makes strategy behaviour easy to pin down.
type meanModel struct {
	mean float64
}

func (m *meanModel) Name() string            { return "mean" }
func (m *meanModel) Clone() model.Model      { return &meanModel{} }
func (m *meanModel) SetParams(map[string]any) error { return nil }

func (m *meanModel) Fit(x *mat.Dense, y []float64) error {
	if len(y) == 0 {
		return fmt.Errorf("no targets")
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	m.mean = sum / float64(len(y))
	return nil
}

func (m *meanModel) Predict(x *mat.Dense) ([]float64, error) {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

func testData(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		y[i] = float64(i) * 2
	}
	return x, y
}

func TestKFoldStats(t *testing.T) {
	x, y := testData(20)
	strategy := KFold{Folds: 5, Tests: 3}

	stats, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, key := range []string{
		"avg_fold_avg_rmses", "std_fold_avg_rmses",
		"avg_fold_avg_mean_errors", "std_fold_avg_mean_errors",
		"fold_avg_rmse_best", "fold_avg_rmse_worst",
	} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats missing %q", key)
		}
	}
	if stats[strategy.AggregateKey()] <= 0 {
		t.Errorf("aggregate rmse = %g, want > 0", stats[strategy.AggregateKey()])
	}
	if stats["fold_avg_rmse_best"] > stats["fold_avg_rmse_worst"] {
		t.Errorf("best %g above worst %g", stats["fold_avg_rmse_best"], stats["fold_avg_rmse_worst"])
	}
}

func TestKFoldDeterministicWithSeed(t *testing.T) {
	x, y := testData(20)
	strategy := KFold{Folds: 4, Tests: 5}

	a, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for key, va := range a {
		if vb := b[key]; va != vb {
			t.Errorf("%s differs across identically-seeded runs: %g vs %g", key, va, vb)
		}
	}
}

func TestKFoldValidation(t *testing.T) {
	x, y := testData(10)
	testCases := []struct {
		name     string
		strategy KFold
	}{
		{"one_fold", KFold{Folds: 1, Tests: 3}},
		{"more_folds_than_rows", KFold{Folds: 11, Tests: 3}},
		{"zero_tests", KFold{Folds: 5, Tests: 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(1))); err == nil {
				t.Error("Run succeeded, want error")
			}
		})
	}
}

func TestLeaveOutPercentStats(t *testing.T) {
	x, y := testData(20)
	strategy := LeaveOutPercent{Percent: 20, Tests: 4}

	stats, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, key := range []string{
		"avg_rmse", "std_rmse", "avg_mean_error", "std_mean_error",
		"rmse_best", "rmse_worst",
	} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats missing %q", key)
		}
	}
	if stats["rmse_best"] > stats["avg_rmse"] || stats["avg_rmse"] > stats["rmse_worst"] {
		t.Errorf("best %g, avg %g, worst %g out of order",
			stats["rmse_best"], stats["avg_rmse"], stats["rmse_worst"])
	}
}

func TestLeaveOutPercentHoldsOutAtLeastOne(t *testing.T) {
	// 5% of 10 rows truncates to zero; the split must still hold one out.
	x, y := testData(10)
	strategy := LeaveOutPercent{Percent: 5, Tests: 2}

	if _, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestLeaveOutPercentValidation(t *testing.T) {
	x, y := testData(10)
	for _, pct := range []float64{0, -5, 100, 150} {
		strategy := LeaveOutPercent{Percent: pct, Tests: 2}
		if _, err := strategy.Run(x, y, &meanModel{}, rand.New(rand.NewSource(1))); err == nil {
			t.Errorf("Percent=%g succeeded, want error", pct)
		}
	}
}

func TestRMSE(t *testing.T) {
	got := rmse([]float64{1, 2, 3}, []float64{1, 2, 3})
	if got != 0 {
		t.Errorf("rmse of identical slices = %g, want 0", got)
	}

	got = rmse([]float64{2, 2}, []float64{0, 0})
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("rmse = %g, want 2", got)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{1, 2, 3, 4})
	if math.Abs(mean-2.5) > 1e-12 {
		t.Errorf("mean = %g, want 2.5", mean)
	}
	if std <= 0 {
		t.Errorf("std = %g, want > 0", std)
	}

	mean, std = meanStd([]float64{5})
	if mean != 5 || std != 0 {
		t.Errorf("single value: mean %g std %g, want 5 and 0", mean, std)
	}
}
