// Package features holds the feature-computation hooks addressable from
// parameter specs. A hook location (any spec location other than "model")
// names a registered function that derives one new column from a table and
// an argument map; the grid search appends the column to a per-point clone
// of the dataset and adds it to the input features.
package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/alloy-data/degradation.fit/internal/dataset"
)

// Func computes one feature column. Args arrive as strings: fixed arguments
// verbatim from the spec, optimized arguments formatted from their numeric
// values. The returned name becomes the new column name.
type Func func(t *dataset.Table, args map[string]string) (name string, col []float64, err error)

var (
	mu       sync.RWMutex
	registry = map[string]Func{}
)

// Register adds a hook under a location name. Registering the same location
// twice panics; hook names are package-level constants wired at init time.
func Register(location string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[location]; dup {
		panic(fmt.Sprintf("features: duplicate registration of %q", location))
	}
	registry[location] = fn
}

// Lookup resolves a location to its hook.
func Lookup(location string) (Func, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[location]
	if !ok {
		return nil, fmt.Errorf("no feature hook registered for location %q (have %v)", location, names())
	}
	return fn, nil
}

func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("fluence.effective", EffectiveFluence)
	Register("fluence.log10", LogFluence)
}

// argFloat parses a required float argument.
func argFloat(args map[string]string, key string) (float64, error) {
	s, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	return v, nil
}

// argString returns an argument or its default.
func argString(args map[string]string, key, def string) string {
	if s, ok := args[key]; ok {
		return s
	}
	return def
}

// EffectiveFluence computes log10 of the flux-adjusted effective fluence,
// fluence * (ref_flux/flux)^p. The exponent p ("pvalue") is the usual
// optimization target; ref_flux defaults to 3e10 n/cm^2/s.
//
// Arguments: pvalue (required), ref_flux, flux_column, fluence_column.
func EffectiveFluence(t *dataset.Table, args map[string]string) (string, []float64, error) {
	p, err := argFloat(args, "pvalue")
	if err != nil {
		return "", nil, err
	}
	refFlux := 3e10
	if _, ok := args["ref_flux"]; ok {
		refFlux, err = argFloat(args, "ref_flux")
		if err != nil {
			return "", nil, err
		}
	}
	fluxName := argString(args, "flux_column", "flux_n_cm2_sec")
	fluenceName := argString(args, "fluence_column", "fluence_n_cm2")

	flux, ok := t.Column(fluxName)
	if !ok {
		return "", nil, fmt.Errorf("flux column %q not in table", fluxName)
	}
	fluence, ok := t.Column(fluenceName)
	if !ok {
		return "", nil, fmt.Errorf("fluence column %q not in table", fluenceName)
	}

	col := make([]float64, len(fluence))
	for i := range col {
		eff := fluence[i] * math.Pow(refFlux/flux[i], p)
		col[i] = math.Log10(eff)
	}
	return "log_eff_fluence", col, nil
}

// LogFluence computes log10 of the raw fluence column.
//
// Arguments: fluence_column.
func LogFluence(t *dataset.Table, args map[string]string) (string, []float64, error) {
	fluenceName := argString(args, "fluence_column", "fluence_n_cm2")
	fluence, ok := t.Column(fluenceName)
	if !ok {
		return "", nil, fmt.Errorf("fluence column %q not in table", fluenceName)
	}
	col := make([]float64, len(fluence))
	for i := range col {
		col[i] = math.Log10(fluence[i])
	}
	return "log_fluence", col, nil
}
