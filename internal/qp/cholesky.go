package qp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxCond bounds the condition number Cholesky accepts.
const DefaultMaxCond = 1e12

// Cholesky solves unconstrained problems through the factorization G = LLᵀ.
type Cholesky struct {
	MaxCond float64
}

func NewCholesky() *Cholesky {
	return &Cholesky{MaxCond: DefaultMaxCond}
}

func (s *Cholesky) Solve(p Problem) (*mat.VecDense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Constrained() {
		return nil, ErrConstrained
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(p.G); !ok {
		return nil, ErrNotPositiveDefinite
	}

	maxCond := s.MaxCond
	if maxCond <= 0 {
		maxCond = DefaultMaxCond
	}
	if cond := chol.Cond(); cond > maxCond {
		return nil, fmt.Errorf("%w: cond=%.3g", ErrIllConditioned, cond)
	}

	rhs := mat.NewVecDense(p.Dim(), nil)
	rhs.ScaleVec(-1, p.C)

	x := mat.NewVecDense(p.Dim(), nil)
	if err := chol.SolveVecTo(x, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllConditioned, err)
	}
	return x, nil
}
