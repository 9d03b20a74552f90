package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
	log "github.com/sirupsen/logrus"
)

// Simulator is the tick scheduler: every Dt it asks the controller for a
// command, applies the fallback policy when none is available, and
// advances the plant.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	trajectory dynamo.Trajectory
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// SetTrajectory records the setpoint of every tick in the result.
func (s *Simulator) SetTrajectory(traj dynamo.Trajectory) { s.trajectory = traj }

// TickError records a tick on which the controller returned no command.
type TickError struct {
	Step    int
	Time    float64
	State   dynamo.State
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}

// Command asks the controller for the tick's command. When it fails, the
// fallback decides: hold repeats last, stop commands zero, abort returns
// the error with a nil command.
func (s *Simulator) Command(x dynamo.State, t float64, last dynamo.Control, fb dynamo.Fallback) (dynamo.Control, error) {
	u, err := s.controller.Compute(x, t)
	if err == nil {
		return u, nil
	}

	fields := log.Fields{"t": t, "fallback": fb, "error": err}
	switch fb {
	case dynamo.FallbackAbort:
		log.WithFields(fields).Error("tick failed")
		return nil, err
	case dynamo.FallbackStop:
		u = make(dynamo.Control, s.dyn.ControlDim())
	default:
		u = make(dynamo.Control, s.dyn.ControlDim())
		copy(u, last)
	}
	log.WithFields(fields).Warn("tick failed, applying fallback")
	return u, err
}

// Advance integrates the plant over one tick.
func (s *Simulator) Advance(x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	return s.integrator.Step(s.dyn, x, u, t, dt)
}

func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		States:    make([]dynamo.State, 0, steps+1),
		Controls:  make([]dynamo.Control, 0, steps),
		Setpoints: make([]dynamo.Setpoint, 0, steps),
		Times:     make([]float64, 0, steps+1),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	var last dynamo.Control

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		u, err := s.Command(x, t, last, cfg.Fallback)
		if err != nil {
			tickErr := &TickError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			result.Errors = append(result.Errors, tickErr)
			result.FailedTicks++
			if u == nil {
				s.finish(result)
				return result, tickErr
			}
		}
		last = u

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}
		if s.trajectory != nil {
			result.Setpoints = append(result.Setpoints, s.trajectory.At(t))
		}

		newX := s.Advance(x, u, t, cfg.Dt)
		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, &TickError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState})
			break
		}

		x = newX
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) finish(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Metrics["failed_ticks"] = float64(result.FailedTicks)
}

func (s *Simulator) validateConfig(x0 dynamo.State, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if _, err := dynamo.ParseFallback(string(cfg.Fallback)); err != nil {
		return err
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}
