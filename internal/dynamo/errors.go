package dynamo

import "errors"

// Domain errors shared by controllers and the tick scheduler.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDegenerateInput indicates per-tick inputs the control law cannot use,
	// such as a non-positive time step.
	ErrDegenerateInput = errors.New("dynamo: degenerate tick input")

	// ErrControlUnavailable indicates the controller produced no command for
	// this tick. The scheduler decides what to apply instead.
	ErrControlUnavailable = errors.New("dynamo: control unavailable")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)
