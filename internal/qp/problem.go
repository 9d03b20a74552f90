package qp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimension indicates G, c or a constraint block disagree in size.
	ErrDimension = errors.New("qp: dimension mismatch")

	// ErrNotPositiveDefinite indicates G could not be factorized.
	ErrNotPositiveDefinite = errors.New("qp: cost matrix is not positive definite")

	// ErrIllConditioned indicates G is too close to singular to trust the solution.
	ErrIllConditioned = errors.New("qp: cost matrix is ill-conditioned")

	// ErrConstrained indicates the solver does not support the constraint set given.
	ErrConstrained = errors.New("qp: constraints not supported by solver")
)

// Constraint is a linear constraint block A·x (≤ or =) b.
type Constraint struct {
	A *mat.Dense
	B *mat.VecDense
}

func (c *Constraint) empty() bool {
	if c == nil || c.A == nil {
		return true
	}
	r, _ := c.A.Dims()
	return r == 0
}

// Problem is a convex QP in standard form. Nil constraint blocks mean none.
type Problem struct {
	G          *mat.SymDense
	C          *mat.VecDense
	Inequality *Constraint
	Equality   *Constraint
}

// Dim returns the number of decision variables.
func (p Problem) Dim() int {
	if p.G == nil {
		return 0
	}
	return p.G.SymmetricDim()
}

func (p Problem) Constrained() bool {
	return !p.Inequality.empty() || !p.Equality.empty()
}

func (p Problem) Validate() error {
	if p.G == nil || p.C == nil {
		return fmt.Errorf("%w: missing cost terms", ErrDimension)
	}
	n := p.Dim()
	if n == 0 {
		return fmt.Errorf("%w: empty problem", ErrDimension)
	}
	if p.C.Len() != n {
		return fmt.Errorf("%w: G is %dx%d, c has %d entries", ErrDimension, n, n, p.C.Len())
	}
	for name, c := range map[string]*Constraint{"inequality": p.Inequality, "equality": p.Equality} {
		if c.empty() {
			continue
		}
		r, cols := c.A.Dims()
		if cols != n || c.B == nil || c.B.Len() != r {
			return fmt.Errorf("%w: %s block", ErrDimension, name)
		}
	}
	return nil
}

// Objective evaluates ½·xᵀ·G·x + cᵀ·x.
func (p Problem) Objective(x mat.Vector) float64 {
	var gx mat.VecDense
	gx.MulVec(p.G, x)
	return 0.5*mat.Dot(x, &gx) + mat.Dot(p.C, x)
}

// Solver finds the minimizer of a Problem.
type Solver interface {
	Solve(p Problem) (*mat.VecDense, error)
}
