package dynamo

import (
	"fmt"
	"math"
)

// State is a plant state vector. For the unicycle it is [x, y, theta].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is a command vector. For the unicycle it is [v, omega].
type Control []float64

// Setpoint is the desired position and velocity handed to a controller
// by the planning layer for one tick.
type Setpoint struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

func (p Setpoint) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Controller computes a command for state x at time t. A non-nil error
// means no command is available for this tick.
type Controller interface {
	Compute(x State, t float64) (Control, error)
}

// Trajectory supplies the desired setpoint at time t.
type Trajectory interface {
	At(t float64) Setpoint
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	Fallback      Fallback
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.1,
		Duration:      20.0,
		Fallback:      FallbackHold,
		ValidateState: true,
	}
}

// Fallback selects what the tick scheduler applies when a controller
// reports that no command is available.
type Fallback string

const (
	FallbackHold  Fallback = "hold"
	FallbackStop  Fallback = "stop"
	FallbackAbort Fallback = "abort"
)

func ParseFallback(s string) (Fallback, error) {
	switch f := Fallback(s); f {
	case FallbackHold, FallbackStop, FallbackAbort:
		return f, nil
	case "":
		return FallbackHold, nil
	}
	return "", fmt.Errorf("%w: unknown fallback %q", ErrParameterBounds, s)
}

type Result struct {
	States      []State
	Controls    []Control
	Setpoints   []Setpoint
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	FailedTicks int
	Errors      []error
}
