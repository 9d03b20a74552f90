package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/physics"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

// A constant [v, omega] command traces a circle of radius v/omega.
func TestRK4UnicycleArc(t *testing.T) {
	dyn := physics.NewUnicycle()
	integ := NewRK4()

	v, omega := 1.0, 0.5
	u := dynamo.Control{v, omega}
	dt := 0.01
	steps := 200

	x := dynamo.State{0, 0, 0}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	tf := float64(steps) * dt
	r := v / omega
	want := dynamo.State{r * math.Sin(omega*tf), r * (1 - math.Cos(omega*tf)), omega * tf}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-6 {
			t.Errorf("x[%d]: got %.8f, expected %.8f", i, x[i], want[i])
		}
	}
}

func TestEulerStraightLine(t *testing.T) {
	dyn := physics.NewUnicycle()
	integ := NewEuler()

	x := dynamo.State{0, 0, math.Pi / 2}
	for i := 0; i < 10; i++ {
		x = integ.Step(dyn, x, dynamo.Control{2, 0}, 0, 0.1)
	}

	if math.Abs(x[0]) > 1e-12 || math.Abs(x[1]-2) > 1e-12 {
		t.Errorf("expected (0, 2), got (%f, %f)", x[0], x[1])
	}
}
