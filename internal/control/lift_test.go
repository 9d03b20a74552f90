package control

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// rollout propagates e[k+1] = A_k·e[k] + B_k·du[k] one step at a time.
func rollout(models []LinearModel, e0 *mat.VecDense, du []float64) *mat.VecDense {
	n := len(models)
	out := mat.NewVecDense(StateDim*n, nil)
	e := mat.VecDenseCopyOf(e0)
	for k, m := range models {
		u := mat.NewVecDense(InputDim, du[InputDim*k:InputDim*(k+1)])
		var ae, bu mat.VecDense
		ae.MulVec(m.A, e)
		bu.MulVec(m.B, u)
		e.AddVec(&ae, &bu)
		for r := 0; r < StateDim; r++ {
			out.SetVec(StateDim*k+r, e.AtVec(r))
		}
	}
	return out
}

func randomModels(rng *rand.Rand, n int) []LinearModel {
	models := make([]LinearModel, n)
	for i := range models {
		a := make([]float64, StateDim*StateDim)
		b := make([]float64, StateDim*InputDim)
		for j := range a {
			a[j] = rng.NormFloat64()
		}
		for j := range b {
			b[j] = rng.NormFloat64()
		}
		models[i] = LinearModel{
			A: mat.NewDense(StateDim, StateDim, a),
			B: mat.NewDense(StateDim, InputDim, b),
		}
	}
	return models
}

func TestLiftMatchesRollout(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 1; n <= 6; n++ {
		models := randomModels(rng, n)
		pred := Lift(models)

		e0 := mat.NewVecDense(StateDim, []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
		du := make([]float64, InputDim*n)
		for i := range du {
			du[i] = rng.NormFloat64()
		}

		got := pred.Predict(e0, mat.NewVecDense(len(du), du))
		want := rollout(models, e0, du)

		for i := 0; i < want.Len(); i++ {
			if math.Abs(got.AtVec(i)-want.AtVec(i)) > 1e-9 {
				t.Errorf("N=%d row %d: lifted %f, rollout %f", n, i, got.AtVec(i), want.AtVec(i))
			}
		}
	}
}

func TestLiftIsCausal(t *testing.T) {
	pred := Lift(randomModels(rand.New(rand.NewSource(1)), 4))

	for j := 0; j < 4; j++ {
		for i := j + 1; i < 4; i++ {
			if !mat.Equal(inputBlock(pred.BHat, j, i), mat.NewDense(StateDim, InputDim, nil)) {
				t.Errorf("block (%d,%d) above the diagonal should be zero", j, i)
			}
		}
	}
}

func TestLiftDiagonalBlocks(t *testing.T) {
	models := randomModels(rand.New(rand.NewSource(3)), 3)
	pred := Lift(models)

	for j, m := range models {
		if !mat.Equal(inputBlock(pred.BHat, j, j), m.B) {
			t.Errorf("BHat[%d,%d] should equal B_%d", j, j, j)
		}
	}
	if !mat.EqualApprox(stateBlock(pred.AHat, 0), models[0].A, 1e-15) {
		t.Error("AHat[0] should equal A_0")
	}
}

func TestLiftZeroBoundaryBlanksLastRow(t *testing.T) {
	samples := ReferenceHorizon(setpoint(0, 0, 1, 0.5), 0.1, 4, BoundaryZero)
	pred := Lift(Linearize(samples, 0.1, BoundaryZero))

	last := 3
	if !mat.Equal(stateBlock(pred.AHat, last), mat.NewDense(StateDim, StateDim, nil)) {
		t.Error("AHat for the final step should be zero under BoundaryZero")
	}
	for i := 0; i <= last; i++ {
		if !mat.Equal(inputBlock(pred.BHat, last, i), mat.NewDense(StateDim, InputDim, nil)) {
			t.Errorf("BHat[%d,%d] should be zero under BoundaryZero", last, i)
		}
	}
}

func TestHorizon(t *testing.T) {
	for _, n := range []int{1, 5, 12} {
		pred := Lift(randomModels(rand.New(rand.NewSource(int64(n))), n))
		if pred.Horizon() != n {
			t.Errorf("expected horizon %d, got %d", n, pred.Horizon())
		}
	}
}
