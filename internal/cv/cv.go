// Package cv implements the cross-validation strategies used to score one
// hyperparameter configuration: repeated k-fold, and repeated
// leave-out-percent (shuffle split). Both run their randomized splits off a
// caller-supplied generator so a run can be made fully reproducible.
package cv

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/alloy-data/degradation.fit/internal/model"
)

// Stats is the named-scalar statistics mapping produced by one strategy run.
type Stats map[string]float64

// Strategy scores a model on a dataset by repeated randomized splits. The
// aggregate error lives in the stats under AggregateKey.
type Strategy interface {
	Name() string
	AggregateKey() string
	Run(x *mat.Dense, y []float64, m model.Model, rng *rand.Rand) (Stats, error)
}

// rmse returns root-mean-squared error between predictions and targets.
func rmse(pred, actual []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred)))
}

// meanError returns the mean signed error (prediction bias).
func meanError(pred, actual []float64) float64 {
	var sum float64
	for i := range pred {
		sum += pred[i] - actual[i]
	}
	return sum / float64(len(pred))
}

// meanStd returns mean and sample standard deviation, with stddev 0 for
// fewer than two values.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	m := stat.Mean(xs, nil)
	if len(xs) < 2 {
		return m, 0
	}
	return m, stat.StdDev(xs, nil)
}

// subset extracts the given rows of x and y.
func subset(x *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := x.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := make([]float64, len(idx))
	for i, row := range idx {
		xs.SetRow(i, x.RawRowView(row))
		ys[i] = y[row]
	}
	return xs, ys
}

// fitPredict trains a fresh clone on the train rows and predicts the test
// rows. Each split gets its own clone so no fitted state leaks across
// splits.
func fitPredict(x *mat.Dense, y []float64, m model.Model, train, test []int) ([]float64, []float64, error) {
	xTrain, yTrain := subset(x, y, train)
	xTest, yTest := subset(x, y, test)

	split := m.Clone()
	if err := split.Fit(xTrain, yTrain); err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}
	pred, err := split.Predict(xTest)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	return pred, yTest, nil
}
