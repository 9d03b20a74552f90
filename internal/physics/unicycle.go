package physics

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// Unicycle is the kinematic model x' = v·cos(theta), y' = v·sin(theta),
// theta' = omega with state [x, y, theta] and control [v, omega].
type Unicycle struct {
	// MaxSpeed and MaxRate clip the applied command when positive.
	MaxSpeed float64
	MaxRate  float64
}

func NewUnicycle() *Unicycle {
	return &Unicycle{}
}

func (m *Unicycle) StateDim() int   { return 3 }
func (m *Unicycle) ControlDim() int { return 2 }

func (m *Unicycle) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[2]

	v, omega := 0.0, 0.0
	if len(u) >= 2 {
		v, omega = u[0], u[1]
	}
	v = clip(v, m.MaxSpeed)
	omega = clip(omega, m.MaxRate)

	return dynamo.State{v * math.Cos(theta), v * math.Sin(theta), omega}
}

func clip(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
