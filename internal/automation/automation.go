package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/unimpc/internal/config"
	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/experiment"
	"github.com/san-kum/unimpc/internal/sim"
)

// Scenario defines a batch of runs compared side by side
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and decodes Config
// on top of it, so a step only lists what it changes.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

// StepResult is one finished scenario step.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the full config of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps concurrently and returns them in file
// order. Any step failing to build or abort fails the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, parallel int) ([]StepResult, error) {
	ens := sim.NewEnsemble(parallel)
	out := make([]StepResult, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", name, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return nil, fmt.Errorf("step %s setup: %w", name, err)
		}
		job, err := exp.Job(name)
		if err != nil {
			return nil, err
		}
		ens.Add(job)
		out[i] = StepResult{Name: name, Config: cfg}
	}

	log.WithFields(log.Fields{"scenario": scenario.Name, "steps": ens.Len()}).Info("running scenario")

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		out[i].Result = res
	}
	return out, nil
}

// MonteCarloConfig perturbs the initial pose of Base uniformly within
// PoseSpread (position) and HeadingSpread (radians).
type MonteCarloConfig struct {
	Base          *config.Config
	NumTrials     int
	PoseSpread    float64
	HeadingSpread float64
	// Tolerance is the final position error below which a trial converged.
	Tolerance float64
	Seed      int64
	Parallel  int
}

// MonteCarloResult holds the outcome of one perturbed trial
type MonteCarloResult struct {
	TrialID     int
	InitState   dynamo.State
	FinalError  float64
	RMSE        float64
	FailedTicks int
	Converged   bool
}

// RunMonteCarlo executes trials with random initial poses
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("need at least one trial, got %d", cfg.NumTrials)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ens := sim.NewEnsemble(cfg.Parallel)
	exps := make([]*experiment.Experiment, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		trialCfg.InitPose.X += (rng.Float64() - 0.5) * 2 * cfg.PoseSpread
		trialCfg.InitPose.Y += (rng.Float64() - 0.5) * 2 * cfg.PoseSpread
		trialCfg.InitPose.Theta += (rng.Float64() - 0.5) * 2 * cfg.HeadingSpread

		exp := experiment.New(trialCfg)
		if err := exp.Setup(registry); err != nil {
			return nil, err
		}
		job, err := exp.Job(fmt.Sprintf("trial-%d", trial))
		if err != nil {
			return nil, err
		}
		ens.Add(job)
		exps[trial] = exp
	}

	runs, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		final := res.States[len(res.States)-1]
		sp := exps[i].Trajectory().At(res.Times[len(res.Times)-1])
		finalErr := math.Hypot(final[0]-sp.X, final[1]-sp.Y)

		results[i] = MonteCarloResult{
			TrialID:     i,
			InitState:   res.States[0],
			FinalError:  finalErr,
			RMSE:        res.Metrics["tracking_rmse"],
			FailedTicks: res.FailedTicks,
			Converged:   finalErr <= cfg.Tolerance,
		}
	}

	return results, nil
}

// MonteCarloStats counts converged and diverged trials
func MonteCarloStats(results []MonteCarloResult) (converged int, diverged int) {
	for _, r := range results {
		if r.Converged {
			converged++
		} else {
			diverged++
		}
	}
	return
}
