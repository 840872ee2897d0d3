// Package gridsearch performs hyperparameter grid-search optimization of a
// regression model plus a parameterizable feature pipeline. Axis specs are
// expanded into a Cartesian product of grid points; each point is scored by
// cross-validation and the lowest-error configurations are ranked and
// reported.
package gridsearch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// LocationModel is the axis location addressing the estimator itself; every
// other location names a feature-computation hook.
const LocationModel = "model"

// ParamType is the declared value type of an axis.
type ParamType string

const (
	TypeInt   ParamType = "int"
	TypeFloat ParamType = "float"
)

const (
	rangeDiscrete      = "discrete"
	rangeContinuous    = "continuous"
	rangeContinuousLog = "continuous-log"
)

// Axis is one optimized parameter: its target location, name, declared type
// and the expanded ordered candidate values (int or float64 per Type).
// IsLog records that the axis was declared continuous-log; plots use it to
// switch the x-axis to log10.
type Axis struct {
	Location string
	Name     string
	Type     ParamType
	IsLog    bool
	Values   []any
}

// Key returns the "location.name" identifier used for result columns.
func (a Axis) Key() string {
	return a.Location + "." + a.Name
}

// ParseAxes parses axis spec strings of the form
//
//	location;name;type;range_type;grid_info
//
// into expanded axes. Empty strings are skipped; the remaining axes are
// ordered by first-seen location, then first-seen name within a location.
// maxAxes <= 0 means the default of 4.
func ParseAxes(specs []string, maxAxes int) ([]Axis, error) {
	if maxAxes <= 0 {
		maxAxes = DefaultMaxAxes
	}

	var active []string
	for _, s := range specs {
		if strings.TrimSpace(s) != "" {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoParameters
	}
	if len(active) > maxAxes {
		return nil, fmt.Errorf("%w: %d axes, maximum %d", ErrTooManyAxes, len(active), maxAxes)
	}

	// Group axes by location in first-seen order, preserving per-location
	// name order. The enumeration order contract depends on this.
	var locOrder []string
	byLoc := make(map[string][]Axis)
	seen := make(map[string]bool)

	for _, spec := range active {
		axis, err := parseAxis(spec)
		if err != nil {
			return nil, err
		}
		key := axis.Key()
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParameter, key)
		}
		seen[key] = true
		if _, ok := byLoc[axis.Location]; !ok {
			locOrder = append(locOrder, axis.Location)
		}
		byLoc[axis.Location] = append(byLoc[axis.Location], axis)
	}

	var axes []Axis
	for _, loc := range locOrder {
		axes = append(axes, byLoc[loc]...)
	}
	return axes, nil
}

func parseAxis(spec string) (Axis, error) {
	parts := strings.Split(strings.TrimSpace(spec), ";")
	if len(parts) != 5 {
		return Axis{}, fmt.Errorf("axis spec %q: want 5 semicolon-delimited fields, got %d", spec, len(parts))
	}

	location := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	if location == "" || name == "" {
		return Axis{}, fmt.Errorf("axis spec %q: empty location or name", spec)
	}

	ptype := ParamType(strings.ToLower(strings.TrimSpace(parts[2])))
	if ptype != TypeInt && ptype != TypeFloat {
		return Axis{}, fmt.Errorf("%w: got %q", ErrInvalidType, parts[2])
	}

	rtype := strings.ToLower(strings.TrimSpace(parts[3]))
	if rtype != rangeDiscrete && rtype != rangeContinuous && rtype != rangeContinuousLog {
		return Axis{}, fmt.Errorf("%w: got %q", ErrInvalidRangeType, parts[3])
	}

	values, err := expandGrid(ptype, rtype, strings.TrimSpace(parts[4]))
	if err != nil {
		return Axis{}, fmt.Errorf("axis %s.%s: %w", location, name, err)
	}

	return Axis{
		Location: location,
		Name:     name,
		Type:     ptype,
		IsLog:    rtype == rangeContinuousLog,
		Values:   values,
	}, nil
}

// expandGrid turns the colon-delimited grid_info field into the ordered
// value list. Discrete grids list values literally; continuous grids are
// start:stop:count, linearly spaced inclusive of both ends; continuous-log
// grids treat start and stop as base-10 exponents. Integer axes truncate
// each spaced value, which can produce duplicates when the spacing is below
// one.
func expandGrid(ptype ParamType, rtype, gridInfo string) ([]any, error) {
	tokens := strings.Split(gridInfo, ":")

	if rtype == rangeDiscrete {
		values := make([]any, 0, len(tokens))
		for _, tok := range tokens {
			v, err := castToken(ptype, strings.TrimSpace(tok))
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}

	if len(tokens) != 3 {
		return nil, fmt.Errorf("grid info %q: want start:stop:count", gridInfo)
	}
	// Start and stop are parsed per the declared type, so an int axis
	// rejects fractional endpoints outright.
	startTok, err := castToken(ptype, strings.TrimSpace(tokens[0]))
	if err != nil {
		return nil, fmt.Errorf("grid start: %w", err)
	}
	stopTok, err := castToken(ptype, strings.TrimSpace(tokens[1]))
	if err != nil {
		return nil, fmt.Errorf("grid stop: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(tokens[2]))
	if err != nil {
		return nil, fmt.Errorf("grid count %q: %w", tokens[2], err)
	}
	if count < 1 {
		return nil, fmt.Errorf("grid count must be >= 1, got %d", count)
	}

	start, _ := ValueAsFloat(startTok)
	stop, _ := ValueAsFloat(stopTok)

	spaced := make([]float64, count)
	if count == 1 {
		spaced[0] = start
	} else {
		floats.Span(spaced, start, stop)
	}

	values := make([]any, count)
	for i, v := range spaced {
		if rtype == rangeContinuousLog {
			v = math.Pow(10, v)
		}
		if ptype == TypeInt {
			values[i] = int(v)
		} else {
			values[i] = v
		}
	}
	return values, nil
}

// castToken parses one discrete grid token per the declared type.
func castToken(ptype ParamType, tok string) (any, error) {
	if ptype == TypeInt {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", tok, err)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", tok, err)
	}
	return v, nil
}

// ParseFixedArgs parses fixed (non-optimized) feature-argument strings of
// the form
//
//	location;name1:value1;name2:value2;...
//
// Values stay strings and are handed to feature hooks verbatim. Arguments
// for the same location accumulate across strings.
func ParseFixedArgs(specs []string) (map[string]map[string]string, error) {
	fixed := make(map[string]map[string]string)
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.Split(spec, ";")
		if len(parts) < 2 {
			return nil, fmt.Errorf("fixed arg spec %q: want location;name:value;...", spec)
		}
		location := strings.TrimSpace(parts[0])
		if location == "" {
			return nil, fmt.Errorf("fixed arg spec %q: empty location", spec)
		}
		if _, ok := fixed[location]; !ok {
			fixed[location] = make(map[string]string)
		}
		for _, arg := range parts[1:] {
			name, value, ok := strings.Cut(arg, ":")
			if !ok {
				return nil, fmt.Errorf("fixed arg %q: want name:value", arg)
			}
			fixed[location][strings.TrimSpace(name)] = value
		}
	}
	return fixed, nil
}

// FormatValue renders an assignment value for artifacts: ints without a
// decimal point, floats in shortest round-trip form, fixed string arguments
// verbatim.
func FormatValue(v any) string {
	switch vv := v.(type) {
	case int:
		return strconv.Itoa(vv)
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64)
	case string:
		return vv
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// ValueAsFloat converts an assignment value to float64 for plotting and
// result tables.
func ValueAsFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case int:
		return float64(vv), true
	case float64:
		return vv, true
	case string:
		f, err := strconv.ParseFloat(vv, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
