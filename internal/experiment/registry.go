package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/unimpc/internal/config"
	"github.com/san-kum/unimpc/internal/control"
	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/integrators"
	"github.com/san-kum/unimpc/internal/metrics"
	"github.com/san-kum/unimpc/internal/trajectory"
)

// ToleranceRadius is the within_tolerance radius used by DefaultMetrics.
const ToleranceRadius = 0.1

type controllerFactory func(cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error)

type Registry struct {
	trajectories map[string]func(config.PathConfig) dynamo.Trajectory
	integrators  map[string]func() dynamo.Integrator
	controllers  map[string]controllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		trajectories: make(map[string]func(config.PathConfig) dynamo.Trajectory),
		integrators:  make(map[string]func() dynamo.Integrator),
		controllers:  make(map[string]controllerFactory),
	}

	r.trajectories["line"] = func(p config.PathConfig) dynamo.Trajectory {
		return trajectory.NewLine(p.X0, p.Y0, p.VX, p.VY)
	}
	r.trajectories["circle"] = func(p config.PathConfig) dynamo.Trajectory {
		return trajectory.NewCircle(p.X0, p.Y0, p.Radius, p.Speed)
	}
	r.trajectories["figure8"] = func(p config.PathConfig) dynamo.Trajectory {
		return trajectory.NewFigure8(p.X0, p.Y0, p.Amplitude, p.Rate)
	}
	r.trajectories["stationary"] = func(p config.PathConfig) dynamo.Trajectory {
		return trajectory.NewStationary(p.X0, p.Y0)
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["mpc"] = func(cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error) {
		mc, err := cfg.MPCConfig()
		if err != nil {
			return nil, err
		}
		return control.NewMPC(mc, traj, cfg.Dt)
	}
	r.controllers["feedforward"] = func(cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error) {
		return control.NewFeedForward(traj), nil
	}
	r.controllers["pid"] = func(cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error) {
		p := cfg.ControllerParams
		return control.NewPIDTracker(traj, p.Kp, p.Ki, p.Kd), nil
	}
	r.controllers["none"] = func(cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error) {
		return control.NewNone(), nil
	}

	return r
}

func (r *Registry) GetTrajectory(name string, p config.PathConfig) (dynamo.Trajectory, error) {
	fn, ok := r.trajectories[name]
	if !ok {
		return nil, fmt.Errorf("unknown trajectory: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg *config.Config, traj dynamo.Trajectory) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(cfg, traj)
}

func (r *Registry) ListTrajectories() []string { return sortedKeys(r.trajectories) }
func (r *Registry) ListIntegrators() []string  { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string  { return sortedKeys(r.controllers) }

func (r *Registry) DefaultMetrics(traj dynamo.Trajectory) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingRMSE(traj),
		metrics.NewMaxTrackingError(traj),
		metrics.NewWithinTolerance(traj, ToleranceRadius),
		metrics.NewControlEffort(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
