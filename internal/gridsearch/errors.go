package gridsearch

import "errors"

// Setup and validation errors. All are raised before any model fitting
// starts, except ErrParameterCollision which surfaces while grid-point
// assignments are assembled.
var (
	// ErrInvalidType is returned for a parameter type other than int or float.
	ErrInvalidType = errors.New("parameter type must be int or float")

	// ErrInvalidRangeType is returned for a range type other than discrete,
	// continuous, or continuous-log.
	ErrInvalidRangeType = errors.New("range type must be discrete, continuous, or continuous-log")

	// ErrDuplicateParameter is returned when the same (location, name) pair is
	// specified on more than one axis.
	ErrDuplicateParameter = errors.New("duplicate optimization parameter")

	// ErrNoParameters is returned when no non-empty axis specs are supplied.
	ErrNoParameters = errors.New("no parameters to optimize")

	// ErrTooManyAxes is returned when more axes are supplied than the
	// configured maximum.
	ErrTooManyAxes = errors.New("too many parameter axes")

	// ErrPopulationTooLarge is returned when the grid's Cartesian product
	// exceeds the population limit.
	ErrPopulationTooLarge = errors.New("grid population exceeds limit")

	// ErrParameterCollision is returned when a fixed feature argument shares a
	// name with an optimized parameter at the same location.
	ErrParameterCollision = errors.New("fixed parameter collides with optimized parameter")

	// ErrAmbiguousValidationConfig is returned unless exactly one of the fold
	// count and the leave-out percent is set.
	ErrAmbiguousValidationConfig = errors.New("exactly one of folds and leave-out percent must be set")

	// ErrMissingTargetData is returned when cross-validation is requested on a
	// dataset with no target column.
	ErrMissingTargetData = errors.New("cross-validation requires target data")
)
