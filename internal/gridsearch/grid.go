package gridsearch

import (
	"fmt"
)

const (
	// DefaultMaxAxes bounds the number of simultaneously optimized
	// parameters. The enumerator itself is N-ary; the bound exists to keep
	// grids reviewable, not because of an implementation limit.
	DefaultMaxAxes = 4

	// DefaultPopulationLimit caps the Cartesian product size as a safety
	// valve against runaway grids.
	DefaultPopulationLimit = 1_000_000
)

// Point is one grid point: an index and the full parameter assignment.
// Assignment[LocationModel] holds estimator hyperparameters (int or
// float64); other locations hold feature-hook arguments, where fixed
// arguments are strings and optimized ones are numeric. Points are
// read-only after enumeration.
type Point struct {
	Index      int
	Assignment map[string]map[string]any
}

// Grid is the enumerated population of grid points.
type Grid struct {
	Axes   []Axis
	Points []Point
}

// Size returns the population size.
func (g *Grid) Size() int { return len(g.Points) }

// Enumerate computes the Cartesian product of the axes, merging the fixed
// feature arguments into every point. Enumeration is lexicographic over
// axis order with the last axis varying fastest; Point.Index records the
// position and is the only ordering other components may rely on.
// limit <= 0 means DefaultPopulationLimit.
func Enumerate(axes []Axis, fixed map[string]map[string]string, limit int) (*Grid, error) {
	if len(axes) == 0 {
		return nil, ErrNoParameters
	}
	if limit <= 0 {
		limit = DefaultPopulationLimit
	}

	size := 1
	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil, fmt.Errorf("axis %s has no values", axis.Key())
		}
		size *= len(axis.Values)
		if size > limit {
			return nil, fmt.Errorf("%w: over %d grid points", ErrPopulationTooLarge, limit)
		}
	}

	points := make([]Point, 0, size)
	odometer := make([]int, len(axes))
	for idx := 0; idx < size; idx++ {
		assignment := make(map[string]map[string]any)
		for a, axis := range axes {
			loc := assignment[axis.Location]
			if loc == nil {
				loc = make(map[string]any)
				assignment[axis.Location] = loc
			}
			loc[axis.Name] = axis.Values[odometer[a]]
		}

		if err := mergeFixed(assignment, fixed); err != nil {
			return nil, err
		}
		points = append(points, Point{Index: idx, Assignment: assignment})

		// Increment with the last axis fastest.
		for a := len(axes) - 1; a >= 0; a-- {
			odometer[a]++
			if odometer[a] < len(axes[a].Values) {
				break
			}
			odometer[a] = 0
		}
	}

	return &Grid{Axes: axes, Points: points}, nil
}

// mergeFixed copies the fixed feature arguments into one point's
// assignment. A fixed name shadowing an optimized name at the same location
// is a configuration error.
func mergeFixed(assignment map[string]map[string]any, fixed map[string]map[string]string) error {
	for loc, args := range fixed {
		dst := assignment[loc]
		if dst == nil {
			dst = make(map[string]any)
			assignment[loc] = dst
		}
		for name, value := range args {
			if _, taken := dst[name]; taken {
				return fmt.Errorf("%w: %s.%s", ErrParameterCollision, loc, name)
			}
			dst[name] = value
		}
	}
	return nil
}
