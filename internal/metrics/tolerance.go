package metrics

import (
	"github.com/san-kum/unimpc/internal/dynamo"
)

// WithinTolerance is the fraction of ticks on which the robot was no
// further than Radius from its setpoint.
type WithinTolerance struct {
	name       string
	traj       dynamo.Trajectory
	radius     float64
	violations int
	samples    int
}

func NewWithinTolerance(traj dynamo.Trajectory, radius float64) *WithinTolerance {
	return &WithinTolerance{
		name:   "within_tolerance",
		traj:   traj,
		radius: radius,
	}
}

func (s *WithinTolerance) Name() string {
	return s.name
}

func (s *WithinTolerance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	d, ok := positionError(s.traj, x, t)
	if !ok {
		return
	}
	s.samples++
	if d > s.radius {
		s.violations++
	}
}

func (s *WithinTolerance) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *WithinTolerance) Reset() {
	s.violations = 0
	s.samples = 0
}
