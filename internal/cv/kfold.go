package cv

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/alloy-data/degradation.fit/internal/model"
)

// KFold runs Tests repetitions of k-fold cross-validation. Each repetition
// reshuffles the rows into Folds contiguous folds; every fold is held out
// once. The aggregate error is the mean over repetitions of the mean fold
// RMSE.
type KFold struct {
	Folds int
	Tests int
}

func (k KFold) Name() string { return "kfold" }

// AggregateKey names the aggregate RMSE statistic for ranking.
func (k KFold) AggregateKey() string { return "avg_fold_avg_rmses" }

// Run executes the repeated k-fold protocol.
func (k KFold) Run(x *mat.Dense, y []float64, m model.Model, rng *rand.Rand) (Stats, error) {
	n, _ := x.Dims()
	if k.Folds < 2 {
		return nil, fmt.Errorf("kfold: need at least 2 folds, got %d", k.Folds)
	}
	if k.Folds > n {
		return nil, fmt.Errorf("kfold: %d folds for %d rows", k.Folds, n)
	}
	if k.Tests < 1 {
		return nil, fmt.Errorf("kfold: need at least 1 test, got %d", k.Tests)
	}

	testAvgRMSEs := make([]float64, 0, k.Tests)
	testAvgMeanErrs := make([]float64, 0, k.Tests)

	for t := 0; t < k.Tests; t++ {
		perm := rng.Perm(n)

		foldRMSEs := make([]float64, 0, k.Folds)
		foldMeanErrs := make([]float64, 0, k.Folds)
		for f := 0; f < k.Folds; f++ {
			lo := f * n / k.Folds
			hi := (f + 1) * n / k.Folds
			test := perm[lo:hi]
			train := make([]int, 0, n-len(test))
			train = append(train, perm[:lo]...)
			train = append(train, perm[hi:]...)

			pred, actual, err := fitPredict(x, y, m, train, test)
			if err != nil {
				return nil, fmt.Errorf("test %d fold %d: %w", t, f, err)
			}
			foldRMSEs = append(foldRMSEs, rmse(pred, actual))
			foldMeanErrs = append(foldMeanErrs, meanError(pred, actual))
		}

		avgRMSE, _ := meanStd(foldRMSEs)
		avgMeanErr, _ := meanStd(foldMeanErrs)
		testAvgRMSEs = append(testAvgRMSEs, avgRMSE)
		testAvgMeanErrs = append(testAvgMeanErrs, avgMeanErr)
	}

	avg, std := meanStd(testAvgRMSEs)
	avgME, stdME := meanStd(testAvgMeanErrs)

	best, worst := testAvgRMSEs[0], testAvgRMSEs[0]
	for _, v := range testAvgRMSEs[1:] {
		if v < best {
			best = v
		}
		if v > worst {
			worst = v
		}
	}

	return Stats{
		"avg_fold_avg_rmses":       avg,
		"std_fold_avg_rmses":       std,
		"avg_fold_avg_mean_errors": avgME,
		"std_fold_avg_mean_errors": stdME,
		"fold_avg_rmse_best":       best,
		"fold_avg_rmse_worst":      worst,
	}, nil
}
