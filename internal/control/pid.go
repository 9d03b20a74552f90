package control

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// PID is a scalar PID loop. It keeps integral and derivative state between
// calls, so one instance must not be shared across robots.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

func (p *PID) Update(err, t float64) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return u
	}
	return p.Kp * err
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// PIDTracker is a baseline tracker: the reference speed plus a PID on the
// along-track error, and a PID on the heading error blended with the
// cross-track error.
type PIDTracker struct {
	Speed     *PID
	Heading   *PID
	CrossGain float64
	traj      dynamo.Trajectory
}

func NewPIDTracker(traj dynamo.Trajectory, kp, ki, kd float64) *PIDTracker {
	return &PIDTracker{
		Speed:     NewPID(kp, ki, kd),
		Heading:   NewPID(kp, ki, kd),
		CrossGain: 1.0,
		traj:      traj,
	}
}

func (c *PIDTracker) Compute(x dynamo.State, t float64) (dynamo.Control, error) {
	pose, err := PoseFromState(x)
	if err != nil {
		return nil, err
	}
	sp := c.traj.At(t)
	ref := ReferenceHorizon(sp, 1, 1, BoundaryExtrapolate)[0]

	dx, dy := sp.X-pose.X, sp.Y-pose.Y
	sin, cos := math.Sin(pose.Theta), math.Cos(pose.Theta)
	along := cos*dx + sin*dy
	cross := -sin*dx + cos*dy

	headingErr := WrapAngle(ref.Theta-pose.Theta) + c.CrossGain*cross

	cmd := Command{
		V:     ref.V*math.Cos(ref.Theta-pose.Theta) + c.Speed.Update(along, t),
		Omega: c.Heading.Update(headingErr, t),
	}
	return cmd.Control(), nil
}

// WrapAngle maps a to [-pi, pi].
func WrapAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
