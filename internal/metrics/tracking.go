package metrics

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// positionError is the distance from the robot to the setpoint at t.
func positionError(traj dynamo.Trajectory, x dynamo.State, t float64) (float64, bool) {
	if len(x) < 2 {
		return 0, false
	}
	sp := traj.At(t)
	return math.Hypot(x[0]-sp.X, x[1]-sp.Y), true
}

type TrackingRMSE struct {
	name    string
	traj    dynamo.Trajectory
	sumSq   float64
	samples int
}

func NewTrackingRMSE(traj dynamo.Trajectory) *TrackingRMSE {
	return &TrackingRMSE{
		name: "tracking_rmse",
		traj: traj,
	}
}

func (m *TrackingRMSE) Name() string { return m.name }

func (m *TrackingRMSE) Observe(x dynamo.State, u dynamo.Control, t float64) {
	d, ok := positionError(m.traj, x, t)
	if !ok {
		return
	}
	m.sumSq += d * d
	m.samples++
}

func (m *TrackingRMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingRMSE) Reset() {
	m.sumSq = 0
	m.samples = 0
}

type MaxTrackingError struct {
	name string
	traj dynamo.Trajectory
	max  float64
}

func NewMaxTrackingError(traj dynamo.Trajectory) *MaxTrackingError {
	return &MaxTrackingError{
		name: "max_tracking_error",
		traj: traj,
	}
}

func (m *MaxTrackingError) Name() string { return m.name }

func (m *MaxTrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if d, ok := positionError(m.traj, x, t); ok {
		m.max = math.Max(m.max, d)
	}
}

func (m *MaxTrackingError) Value() float64 { return m.max }

func (m *MaxTrackingError) Reset() { m.max = 0 }
