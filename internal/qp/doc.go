// Package qp defines a small convex quadratic-program interface and its
// solvers.
//
// A [Problem] is
//
//	minimize   ½·xᵀ·G·x + cᵀ·x
//	subject to Aineq·x ≤ bineq, Aeq·x = beq
//
// with G symmetric positive (semi-)definite. [Cholesky] handles the
// unconstrained case by solving G·x = −c directly and reports
// [ErrConstrained] when handed constraints.
package qp
