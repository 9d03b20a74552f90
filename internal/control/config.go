package control

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/qp"
)

const (
	// StateDim is the size of the tracking-error vector [ex, ey, etheta].
	StateDim = 3
	// InputDim is the size of a control perturbation [dv, domega].
	InputDim = 2

	DefaultHorizon = 5
)

// Boundary selects how the final horizon step is filled.
type Boundary int

const (
	// BoundaryZero leaves the last reference sample and its linear model
	// zero-valued. This matches the deployed controller and is the default.
	BoundaryZero Boundary = iota
	// BoundaryExtrapolate extrapolates the last step like every other one.
	BoundaryExtrapolate
)

func (b Boundary) String() string {
	switch b {
	case BoundaryZero:
		return "zero"
	case BoundaryExtrapolate:
		return "extrapolate"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return BoundaryZero, nil
	case "extrapolate":
		return BoundaryExtrapolate, nil
	}
	return BoundaryZero, fmt.Errorf("%w: unknown boundary %q", dynamo.ErrParameterBounds, s)
}

// filled returns how many of the n horizon steps carry real reference data.
func (b Boundary) filled(n int) int {
	if b == BoundaryExtrapolate {
		return n
	}
	return n - 1
}

// Weights are the per-state tracking penalties Q (x, y, heading) and the
// per-input effort penalties R (linear, angular).
type Weights struct {
	Q [StateDim]float64
	R [InputDim]float64
}

var DefaultWeights = Weights{
	Q: [StateDim]float64{1, 1, 0.5},
	R: [InputDim]float64{0.1, 0.1},
}

// Scale multiplies every weight by k. The optimum is unchanged for k > 0.
func (w Weights) Scale(k float64) Weights {
	for i := range w.Q {
		w.Q[i] *= k
	}
	for i := range w.R {
		w.R[i] *= k
	}
	return w
}

// Config is the per-deployment tuning of the tracking controller. It is
// never mutated by a tick.
type Config struct {
	Horizon  int
	Weights  Weights
	Boundary Boundary
	// Solver defaults to qp.Cholesky when nil.
	Solver qp.Solver
}

func DefaultConfig() Config {
	return Config{
		Horizon:  DefaultHorizon,
		Weights:  DefaultWeights,
		Boundary: BoundaryZero,
		Solver:   qp.NewCholesky(),
	}
}

// Validate rejects horizons below one and non-positive weights.
func (c Config) Validate() error {
	if c.Horizon < 1 {
		return fmt.Errorf("%w: horizon must be >= 1, got %d", dynamo.ErrParameterBounds, c.Horizon)
	}
	for i, q := range c.Weights.Q {
		if !positive(q) {
			return fmt.Errorf("%w: Q[%d] must be positive, got %g", dynamo.ErrParameterBounds, i, q)
		}
	}
	for i, r := range c.Weights.R {
		if !positive(r) {
			return fmt.Errorf("%w: R[%d] must be positive, got %g", dynamo.ErrParameterBounds, i, r)
		}
	}
	if c.Boundary != BoundaryZero && c.Boundary != BoundaryExtrapolate {
		return fmt.Errorf("%w: %s", dynamo.ErrParameterBounds, c.Boundary)
	}
	return nil
}

func (c Config) solver() qp.Solver {
	if c.Solver == nil {
		return qp.NewCholesky()
	}
	return c.Solver
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
