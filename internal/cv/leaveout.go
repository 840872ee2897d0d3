package cv

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/alloy-data/degradation.fit/internal/model"
)

// LeaveOutPercent runs Tests repetitions of a shuffle split that holds out
// Percent of the rows as the test set each time. The aggregate error is the
// mean test RMSE across repetitions.
type LeaveOutPercent struct {
	Percent float64
	Tests   int
}

func (l LeaveOutPercent) Name() string { return "leave_out_percent" }

// AggregateKey names the aggregate RMSE statistic for ranking.
func (l LeaveOutPercent) AggregateKey() string { return "avg_rmse" }

// Run executes the repeated shuffle-split protocol.
func (l LeaveOutPercent) Run(x *mat.Dense, y []float64, m model.Model, rng *rand.Rand) (Stats, error) {
	n, _ := x.Dims()
	if l.Percent <= 0 || l.Percent >= 100 {
		return nil, fmt.Errorf("leave-out percent must be in (0, 100), got %g", l.Percent)
	}
	if l.Tests < 1 {
		return nil, fmt.Errorf("leave-out: need at least 1 test, got %d", l.Tests)
	}

	nTest := int(float64(n) * l.Percent / 100.0)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		return nil, fmt.Errorf("leave-out: %g%% of %d rows leaves no training data", l.Percent, n)
	}

	rmses := make([]float64, 0, l.Tests)
	meanErrs := make([]float64, 0, l.Tests)
	for t := 0; t < l.Tests; t++ {
		perm := rng.Perm(n)
		test := perm[:nTest]
		train := perm[nTest:]

		pred, actual, err := fitPredict(x, y, m, train, test)
		if err != nil {
			return nil, fmt.Errorf("test %d: %w", t, err)
		}
		rmses = append(rmses, rmse(pred, actual))
		meanErrs = append(meanErrs, meanError(pred, actual))
	}

	avg, std := meanStd(rmses)
	avgME, stdME := meanStd(meanErrs)

	best, worst := rmses[0], rmses[0]
	for _, v := range rmses[1:] {
		if v < best {
			best = v
		}
		if v > worst {
			worst = v
		}
	}

	return Stats{
		"avg_rmse":       avg,
		"std_rmse":       std,
		"avg_mean_error": avgME,
		"std_mean_error": stdME,
		"rmse_best":      best,
		"rmse_worst":     worst,
	}, nil
}
