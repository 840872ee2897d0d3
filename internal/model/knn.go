package model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// KNN is a k-nearest-neighbours regressor with uniform weights.
// Hyperparameter: n_neighbors (int).
type KNN struct {
	Neighbors int

	train  *mat.Dense
	target []float64
}

// NewKNN returns a KNN with the sklearn default of 5 neighbours.
func NewKNN() *KNN {
	return &KNN{Neighbors: 5}
}

func (k *KNN) Name() string { return "knn" }

// Clone returns an unfitted copy with the same hyperparameters.
func (k *KNN) Clone() Model {
	return &KNN{Neighbors: k.Neighbors}
}

// SetParams applies hyperparameters by name. n_neighbors must be an int;
// a float value means the axis spec declared the wrong type.
func (k *KNN) SetParams(params map[string]any) error {
	for name, v := range params {
		switch name {
		case "n_neighbors":
			i, err := intParam(name, v)
			if err != nil {
				return err
			}
			if i < 1 {
				return fmt.Errorf("n_neighbors must be >= 1, got %d", i)
			}
			k.Neighbors = i
		default:
			return fmt.Errorf("knn has no parameter %q", name)
		}
	}
	return nil
}

// Fit stores the training data.
func (k *KNN) Fit(x *mat.Dense, y []float64) error {
	n, _ := x.Dims()
	if n == 0 || len(y) != n {
		return fmt.Errorf("knn: %d rows, %d targets", n, len(y))
	}
	if k.Neighbors > n {
		return fmt.Errorf("knn: n_neighbors=%d exceeds %d training rows", k.Neighbors, n)
	}
	k.train = mat.DenseCopyOf(x)
	k.target = append([]float64(nil), y...)
	return nil
}

// Predict averages the targets of the k nearest training rows.
func (k *KNN) Predict(x *mat.Dense) ([]float64, error) {
	if k.train == nil {
		return nil, fmt.Errorf("knn: predict before fit")
	}
	m, _ := x.Dims()
	nTrain, _ := k.train.Dims()

	type neighbour struct {
		dist   float64
		target float64
	}

	out := make([]float64, m)
	for i := 0; i < m; i++ {
		ri := x.RawRowView(i)
		nbrs := make([]neighbour, nTrain)
		for j := 0; j < nTrain; j++ {
			rj := k.train.RawRowView(j)
			var d2 float64
			for c := range ri {
				d := ri[c] - rj[c]
				d2 += d * d
			}
			nbrs[j] = neighbour{dist: math.Sqrt(d2), target: k.target[j]}
		}
		sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].dist < nbrs[b].dist })

		var sum float64
		for j := 0; j < k.Neighbors; j++ {
			sum += nbrs[j].target
		}
		out[i] = sum / float64(k.Neighbors)
	}
	return out, nil
}
