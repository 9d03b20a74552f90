package control

import (
	"gonum.org/v1/gonum/mat"
)

// Prediction is the condensed horizon model. Block row j holds the error
// after step j has been applied:
//
//	e[j+1] = AHat[j]·e0 + Σ_{i≤j} BHat[j,i]·du[i]
//
// with AHat[j] = A_j···A_0 and BHat[j,i] = A_j···A_{i+1}·B_i.
type Prediction struct {
	AHat *mat.Dense // StateDim·N x StateDim
	BHat *mat.Dense // StateDim·N x InputDim·N
}

// Horizon returns N.
func (p Prediction) Horizon() int {
	r, _ := p.AHat.Dims()
	return r / StateDim
}

// Lift condenses the per-step models into horizon-wide prediction matrices
// using AHat[j] = A_j·AHat[j-1] and BHat[j,i] = A_j·BHat[j-1,i].
func Lift(models []LinearModel) Prediction {
	n := len(models)
	aHat := mat.NewDense(StateDim*n, StateDim, nil)
	bHat := mat.NewDense(StateDim*n, InputDim*n, nil)

	var phi mat.Matrix = mat.NewDiagDense(StateDim, []float64{1, 1, 1})
	for j, m := range models {
		next := new(mat.Dense)
		next.Mul(m.A, phi)
		stateBlock(aHat, j).Copy(next)
		phi = next

		inputBlock(bHat, j, j).Copy(m.B)
		for i := 0; i < j; i++ {
			var blk mat.Dense
			blk.Mul(m.A, inputBlock(bHat, j-1, i))
			inputBlock(bHat, j, i).Copy(&blk)
		}
	}

	return Prediction{AHat: aHat, BHat: bHat}
}

// Predict returns the stacked error trajectory AHat·e0 + BHat·du.
func (p Prediction) Predict(e0, du mat.Vector) *mat.VecDense {
	n := p.Horizon()
	out := mat.NewVecDense(StateDim*n, nil)
	out.MulVec(p.AHat, e0)

	var forced mat.VecDense
	forced.MulVec(p.BHat, du)
	out.AddVec(out, &forced)
	return out
}

func stateBlock(m *mat.Dense, j int) *mat.Dense {
	return m.Slice(StateDim*j, StateDim*(j+1), 0, StateDim).(*mat.Dense)
}

func inputBlock(m *mat.Dense, j, i int) *mat.Dense {
	return m.Slice(StateDim*j, StateDim*(j+1), InputDim*i, InputDim*(i+1)).(*mat.Dense)
}
