package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/unimpc/internal/config"
	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/physics"
	"github.com/san-kum/unimpc/internal/sim"
	"github.com/san-kum/unimpc/internal/storage"
)

// Experiment is one closed-loop run assembled from a config.
type Experiment struct {
	cfg        *config.Config
	simulator  *sim.Simulator
	trajectory dynamo.Trajectory
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the config and builds the plant, integrator, trajectory,
// controller and default metrics from the registry.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	traj, err := reg.GetTrajectory(e.cfg.Trajectory, e.cfg.Path)
	if err != nil {
		return err
	}
	integrator, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	controller, err := reg.GetController(e.cfg.Controller, e.cfg, traj)
	if err != nil {
		return err
	}

	plant := &physics.Unicycle{MaxSpeed: e.cfg.Limits.MaxSpeed, MaxRate: e.cfg.Limits.MaxRate}

	e.trajectory = traj
	e.simulator = sim.New(plant, integrator, controller)
	e.simulator.SetTrajectory(traj)
	for _, m := range reg.DefaultMetrics(traj) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg, err := e.cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	return e.simulator.Run(ctx, e.cfg.GetInitState(), simCfg)
}

// Job returns the experiment as an ensemble job.
func (e *Experiment) Job(name string) (sim.Job, error) {
	if e.simulator == nil {
		return sim.Job{}, fmt.Errorf("experiment not setup")
	}
	simCfg, err := e.cfg.SimConfig()
	if err != nil {
		return sim.Job{}, err
	}
	return sim.Job{Name: name, Sim: e.simulator, X0: e.cfg.GetInitState(), Cfg: simCfg}, nil
}

// Metadata describes the run for storage. MPC tuning is recorded only for
// the mpc controller.
func (e *Experiment) Metadata() storage.RunMetadata {
	meta := storage.RunMetadata{
		Trajectory: e.cfg.Trajectory,
		Controller: e.cfg.Controller,
		Integrator: e.cfg.Integrator,
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Fallback:   e.cfg.Fallback,
	}
	if e.cfg.Controller == "mpc" {
		meta.Horizon = e.cfg.MPC.Horizon
		meta.Q = e.cfg.MPC.Q
		meta.R = e.cfg.MPC.R
		meta.Boundary = e.cfg.MPC.Boundary
	}
	return meta
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Trajectory returns the reference built by Setup.
func (e *Experiment) Trajectory() dynamo.Trajectory {
	return e.trajectory
}
