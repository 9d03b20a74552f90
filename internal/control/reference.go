package control

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// StationaryHeading is the reference heading used when the desired
// velocity is exactly zero and atan2 has no defined direction.
const StationaryHeading = 0.0

// Sample is the reference state and input at one horizon step.
type Sample struct {
	X, Y, Theta float64
	V, Omega    float64
}

// ReferenceHorizon extrapolates the setpoint at constant velocity over n
// steps of dt. Heading and speed are held constant and the angular rate is
// zero. Under BoundaryZero the last sample stays zero-valued.
func ReferenceHorizon(sp dynamo.Setpoint, dt float64, n int, b Boundary) []Sample {
	samples := make([]Sample, n)

	heading := referenceHeading(sp)
	speed := sp.Speed()

	for i := 0; i < b.filled(n); i++ {
		k := float64(i)
		samples[i] = Sample{
			X:     sp.X + dt*sp.VX*k,
			Y:     sp.Y + dt*sp.VY*k,
			Theta: heading,
			V:     speed,
			Omega: 0,
		}
	}
	return samples
}

func referenceHeading(sp dynamo.Setpoint) float64 {
	if sp.VX == 0 && sp.VY == 0 {
		return StationaryHeading
	}
	return math.Atan2(sp.VY, sp.VX)
}

// AlignToReference re-expresses a setpoint and pose in the frame centred
// on the setpoint with its x axis along the reference heading. The pose
// heading comes back relative to the reference, wrapped to [-pi, pi], so
// the atan2 seam at ±pi never reaches the error vector. Speeds and turn
// rates are the same in either frame.
func AlignToReference(sp dynamo.Setpoint, pose Pose) (dynamo.Setpoint, Pose) {
	h := referenceHeading(sp)
	sin, cos := math.Sin(h), math.Cos(h)
	dx, dy := pose.X-sp.X, pose.Y-sp.Y

	local := dynamo.Setpoint{VX: sp.Speed()}
	return local, Pose{
		X:     cos*dx + sin*dy,
		Y:     -sin*dx + cos*dy,
		Theta: WrapAngle(pose.Theta - h),
	}
}
