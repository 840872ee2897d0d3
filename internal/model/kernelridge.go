package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelRidge is ridge regression with an RBF kernel, the estimator used for
// the embrittlement datasets. Hyperparameters: alpha (regularization) and
// gamma (RBF width), both float.
type KernelRidge struct {
	Alpha float64
	Gamma float64

	// fitted state
	train *mat.Dense
	dual  []float64
}

// NewKernelRidge returns a KernelRidge with sklearn-compatible defaults.
func NewKernelRidge() *KernelRidge {
	return &KernelRidge{Alpha: 1.0, Gamma: 1.0}
}

func (k *KernelRidge) Name() string { return "kernel_ridge" }

// Clone returns an unfitted copy with the same hyperparameters.
func (k *KernelRidge) Clone() Model {
	return &KernelRidge{Alpha: k.Alpha, Gamma: k.Gamma}
}

// SetParams applies hyperparameters by name. Unknown names are an error so
// axis-spec typos fail loudly before any fitting starts.
func (k *KernelRidge) SetParams(params map[string]any) error {
	for name, v := range params {
		switch name {
		case "alpha":
			f, err := floatParam(name, v)
			if err != nil {
				return err
			}
			k.Alpha = f
		case "gamma":
			f, err := floatParam(name, v)
			if err != nil {
				return err
			}
			k.Gamma = f
		default:
			return fmt.Errorf("kernel_ridge has no parameter %q", name)
		}
	}
	return nil
}

// rbf computes exp(-gamma * ||a-b||^2) for rows a and b.
func (k *KernelRidge) rbf(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return math.Exp(-k.Gamma * d2)
}

// Fit solves the dual problem (K + alpha*I) c = y.
func (k *KernelRidge) Fit(x *mat.Dense, y []float64) error {
	n, _ := x.Dims()
	if n == 0 || len(y) != n {
		return fmt.Errorf("kernel_ridge: %d rows, %d targets", n, len(y))
	}

	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ri := x.RawRowView(i)
		for j := i; j < n; j++ {
			v := k.rbf(ri, x.RawRowView(j))
			if i == j {
				v += k.Alpha
			}
			gram.SetSym(i, j, v)
		}
	}

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var sol mat.VecDense

	var chol mat.Cholesky
	if chol.Factorize(gram) {
		if err := chol.SolveVecTo(&sol, yv); err != nil {
			return fmt.Errorf("kernel_ridge solve: %w", err)
		}
	} else {
		// Not positive definite (alpha too small); fall back to a dense solve.
		var dense mat.Dense
		if err := dense.Solve(gram, yv); err != nil {
			return fmt.Errorf("kernel_ridge solve: %w", err)
		}
		sol.CloneFromVec(dense.ColView(0))
	}

	k.train = mat.DenseCopyOf(x)
	k.dual = make([]float64, n)
	for i := 0; i < n; i++ {
		k.dual[i] = sol.AtVec(i)
	}
	return nil
}

// Predict evaluates the fitted kernel expansion at each row of x.
func (k *KernelRidge) Predict(x *mat.Dense) ([]float64, error) {
	if k.train == nil {
		return nil, fmt.Errorf("kernel_ridge: predict before fit")
	}
	m, _ := x.Dims()
	nTrain, _ := k.train.Dims()

	out := make([]float64, m)
	for i := 0; i < m; i++ {
		ri := x.RawRowView(i)
		var sum float64
		for j := 0; j < nTrain; j++ {
			sum += k.dual[j] * k.rbf(ri, k.train.RawRowView(j))
		}
		out[i] = sum
	}
	return out, nil
}
