// Package model provides the regression estimators tuned by the grid search.
// Estimators are type-sensitive about their hyperparameters: integer
// parameters reject float values, matching the behaviour of the serialized
// parameter specs (an axis declared "int" always produces int values).
package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model is a regression estimator. Clone must return a deep, independent
// copy so grid points can mutate hyperparameters without cross-talk.
type Model interface {
	Name() string
	Clone() Model
	SetParams(params map[string]any) error
	Fit(x *mat.Dense, y []float64) error
	Predict(x *mat.Dense) ([]float64, error)
}

// New constructs a model by registry name.
func New(name string) (Model, error) {
	switch name {
	case "kernel_ridge":
		return NewKernelRidge(), nil
	case "knn":
		return NewKNN(), nil
	default:
		return nil, fmt.Errorf("unknown model %q (want kernel_ridge or knn)", name)
	}
}

// floatParam accepts float64 or int values for a float-typed hyperparameter.
func floatParam(name string, v any) (float64, error) {
	switch vv := v.(type) {
	case float64:
		return vv, nil
	case int:
		return float64(vv), nil
	default:
		return 0, fmt.Errorf("parameter %q: want numeric, got %T", name, v)
	}
}

// intParam accepts only int values. A float here is a spec mistake (the axis
// was declared "float" for an integer hyperparameter) and is rejected.
func intParam(name string, v any) (int, error) {
	vv, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("parameter %q: want int, got %T", name, v)
	}
	return vv, nil
}
