package control

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/unimpc/internal/qp"
)

// trackingError is e0 = pose - ref for the first horizon sample only. The
// cost regulates the lifted propagation of this single error; predicted
// states are never compared against their own per-step references.
func trackingError(pose Pose, ref Sample) *mat.VecDense {
	return mat.NewVecDense(StateDim, []float64{
		pose.X - ref.X,
		pose.Y - ref.Y,
		pose.Theta - ref.Theta,
	})
}

// Assemble expands
//
//	J = (AHat·e0 + BHat·du)ᵀ·QHat·(AHat·e0 + BHat·du) + duᵀ·RHat·du
//
// into the QP form ½·duᵀ·G·du + cᵀ·du with
// G = 2(BHatᵀ·QHat·BHat + RHat) and c = 2·BHatᵀ·QHat·AHat·e0.
// No constraints are attached.
func Assemble(pred Prediction, w Weights, e0 mat.Vector) qp.Problem {
	n := pred.Horizon()
	dim := InputDim * n

	qHat := mat.NewDiagDense(StateDim*n, tile(w.Q[:], n))
	rHat := mat.NewDiagDense(dim, tile(w.R[:], n))

	var bq mat.Dense
	bq.Mul(pred.BHat.T(), qHat)

	var h mat.Dense
	h.Mul(&bq, pred.BHat)
	h.Add(&h, rHat)

	// 2·H symmetrized, so Cholesky sees an exactly symmetric matrix.
	g := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			g.SetSym(i, j, h.At(i, j)+h.At(j, i))
		}
	}

	var bqa mat.Dense
	bqa.Mul(&bq, pred.AHat)
	c := mat.NewVecDense(dim, nil)
	c.MulVec(&bqa, e0)
	c.ScaleVec(2, c)

	return qp.Problem{G: g, C: c}
}

func tile(v []float64, n int) []float64 {
	out := make([]float64, 0, len(v)*n)
	for i := 0; i < n; i++ {
		out = append(out, v...)
	}
	return out
}
