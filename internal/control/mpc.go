package control

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// Pose is the robot's current position and heading.
type Pose struct {
	X, Y, Theta float64
}

func PoseFromState(x dynamo.State) (Pose, error) {
	if len(x) < StateDim {
		return Pose{}, fmt.Errorf("%w: pose needs %d entries, got %d", dynamo.ErrDimensionMismatch, StateDim, len(x))
	}
	return Pose{X: x[0], Y: x[1], Theta: x[2]}, nil
}

// Command is the body-frame velocity command produced by one tick.
type Command struct {
	V     float64 `json:"v"`
	Omega float64 `json:"omega"`
}

func (c Command) Control() dynamo.Control {
	return dynamo.Control{c.V, c.Omega}
}

// TickInput is everything one tick reads besides the tuning.
type TickInput struct {
	Setpoint dynamo.Setpoint
	Pose     Pose
	Dt       float64
}

func (in TickInput) validate() error {
	if !(in.Dt > 0) || math.IsInf(in.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrDegenerateInput, in.Dt)
	}
	vals := []float64{
		in.Setpoint.X, in.Setpoint.Y, in.Setpoint.VX, in.Setpoint.VY,
		in.Pose.X, in.Pose.Y, in.Pose.Theta,
	}
	if !dynamo.State(vals).IsValid() {
		return fmt.Errorf("%w: non-finite setpoint or pose", dynamo.ErrDegenerateInput)
	}
	return nil
}

// Tick runs one step of the tracking MPC: reference extrapolation,
// linearization, horizon lifting, QP assembly, solve, and extraction of
// the first perturbation into a command. Every matrix is allocated per
// call and nothing is retained, so Tick is safe for concurrent use.
func Tick(cfg Config, in TickInput) (Command, error) {
	if err := cfg.Validate(); err != nil {
		return Command{}, err
	}
	if err := in.validate(); err != nil {
		return Command{}, err
	}

	samples := ReferenceHorizon(in.Setpoint, in.Dt, cfg.Horizon, cfg.Boundary)
	pred := Lift(Linearize(samples, in.Dt, cfg.Boundary))
	e0 := trackingError(in.Pose, samples[0])
	problem := Assemble(pred, cfg.Weights, e0)

	du, err := cfg.solver().Solve(problem)
	if err != nil {
		log.WithFields(log.Fields{
			"horizon": cfg.Horizon,
			"error":   err,
		}).Warn("mpc: qp solve failed")
		return Command{}, fmt.Errorf("%w: %w", dynamo.ErrControlUnavailable, err)
	}

	cmd := extract(samples[0], in.Pose, du)

	log.WithFields(log.Fields{
		"ex":    e0.AtVec(0),
		"ey":    e0.AtVec(1),
		"eth":   e0.AtVec(2),
		"dv":    du.AtVec(0),
		"domg":  du.AtVec(1),
		"v":     cmd.V,
		"omega": cmd.Omega,
	}).Debug("mpc tick")

	return cmd, nil
}

// extract applies the first perturbation to the reference input and
// projects the corrected world-frame velocity onto the robot heading.
func extract(ref Sample, pose Pose, du mat.Vector) Command {
	v := ref.V + du.AtVec(0)
	xDot := v * math.Cos(ref.Theta)
	yDot := v * math.Sin(ref.Theta)
	return Command{
		V:     xDot*math.Cos(pose.Theta) + yDot*math.Sin(pose.Theta),
		Omega: ref.Omega + du.AtVec(1),
	}
}

// MPC adapts Tick to the dynamo.Controller interface, sampling its
// trajectory at the tick time. It holds no mutable state.
type MPC struct {
	cfg  Config
	traj dynamo.Trajectory
	dt   float64
}

func NewMPC(cfg Config, traj dynamo.Trajectory, dt float64) (*MPC, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if traj == nil {
		return nil, fmt.Errorf("%w: nil trajectory", dynamo.ErrParameterBounds)
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrDegenerateInput, dt)
	}
	if cfg.Solver == nil {
		cfg.Solver = cfg.solver()
	}
	return &MPC{cfg: cfg, traj: traj, dt: dt}, nil
}

func (m *MPC) Config() Config { return m.cfg }

// Compute runs Tick in the reference-aligned frame of AlignToReference.
// The linearization evaluates its trig at theta_ref*dt, which only agrees
// with the plant while the reference heading is near zero; aligning keeps
// it there for any path direction.
func (m *MPC) Compute(x dynamo.State, t float64) (dynamo.Control, error) {
	pose, err := PoseFromState(x)
	if err != nil {
		return nil, err
	}
	sp, local := AlignToReference(m.traj.At(t), pose)
	cmd, err := Tick(m.cfg, TickInput{Setpoint: sp, Pose: local, Dt: m.dt})
	if err != nil {
		return nil, err
	}
	return cmd.Control(), nil
}
