package control

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// zeroPerturbation is read-only.
var zeroPerturbation = mat.NewVecDense(InputDim, nil)

// None commands zero velocity on every tick.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(x dynamo.State, t float64) (dynamo.Control, error) {
	return Command{}.Control(), nil
}

// FeedForward applies the reference speed projected onto the robot heading
// with no correction. It is the MPC law with a zero perturbation.
type FeedForward struct {
	traj dynamo.Trajectory
}

func NewFeedForward(traj dynamo.Trajectory) *FeedForward {
	return &FeedForward{traj: traj}
}

func (f *FeedForward) Compute(x dynamo.State, t float64) (dynamo.Control, error) {
	pose, err := PoseFromState(x)
	if err != nil {
		return nil, err
	}
	ref := ReferenceHorizon(f.traj.At(t), 1, 1, BoundaryExtrapolate)[0]
	return extract(ref, pose, zeroPerturbation).Control(), nil
}
