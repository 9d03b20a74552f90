package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/unimpc/internal/control"
	"github.com/san-kum/unimpc/internal/dynamo"
)

const (
	DefaultDt       = 0.1
	DefaultDuration = 20.0
	DefaultSpeed    = 1.0
	DefaultRadius   = 2.0
	DefaultKp       = 1.5
	DefaultKi       = 0.0
	DefaultKd       = 0.1
)

type Config struct {
	Trajectory       string           `yaml:"trajectory"`
	Integrator       string           `yaml:"integrator"`
	Controller       string           `yaml:"controller"`
	Dt               float64          `yaml:"dt"`
	Duration         float64          `yaml:"duration"`
	Fallback         string           `yaml:"fallback"`
	InitPose         PoseConfig       `yaml:"init_pose"`
	Path             PathConfig       `yaml:"path"`
	MPC              MPCParams        `yaml:"mpc"`
	ControllerParams ControllerConfig `yaml:"controller_params"`
	Limits           LimitsConfig     `yaml:"limits"`
}

type PoseConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Theta float64 `yaml:"theta"`
}

// PathConfig parameterizes every trajectory kind; each reads only the
// fields it needs.
type PathConfig struct {
	X0        float64 `yaml:"x0"`
	Y0        float64 `yaml:"y0"`
	VX        float64 `yaml:"vx"`
	VY        float64 `yaml:"vy"`
	Radius    float64 `yaml:"radius"`
	Speed     float64 `yaml:"speed"`
	Amplitude float64 `yaml:"amplitude"`
	Rate      float64 `yaml:"rate"`
}

type MPCParams struct {
	Horizon  int       `yaml:"horizon"`
	Q        []float64 `yaml:"q,flow"`
	R        []float64 `yaml:"r,flow"`
	Boundary string    `yaml:"boundary"`
}

type ControllerConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type LimitsConfig struct {
	MaxSpeed float64 `yaml:"max_speed"`
	MaxRate  float64 `yaml:"max_rate"`
}

func DefaultConfig() *Config {
	w := control.DefaultWeights
	return &Config{
		Trajectory: "line",
		Integrator: "rk4",
		Controller: "mpc",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Fallback:   string(dynamo.FallbackHold),
		Path: PathConfig{
			VX:        DefaultSpeed,
			Radius:    DefaultRadius,
			Speed:     DefaultSpeed,
			Amplitude: DefaultRadius,
			Rate:      0.25,
		},
		MPC: MPCParams{
			Horizon:  control.DefaultHorizon,
			Q:        w.Q[:],
			R:        w.R[:],
			Boundary: control.BoundaryZero.String(),
		},
		ControllerParams: ControllerConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) GetInitState() dynamo.State {
	return dynamo.State{c.InitPose.X, c.InitPose.Y, c.InitPose.Theta}
}

// MPCConfig converts the mpc section into a validated controller tuning.
func (c *Config) MPCConfig() (control.Config, error) {
	cfg := control.DefaultConfig()
	cfg.Horizon = c.MPC.Horizon

	if len(c.MPC.Q) != control.StateDim {
		return cfg, fmt.Errorf("%w: mpc.q needs %d weights, got %d", dynamo.ErrParameterBounds, control.StateDim, len(c.MPC.Q))
	}
	if len(c.MPC.R) != control.InputDim {
		return cfg, fmt.Errorf("%w: mpc.r needs %d weights, got %d", dynamo.ErrParameterBounds, control.InputDim, len(c.MPC.R))
	}
	copy(cfg.Weights.Q[:], c.MPC.Q)
	copy(cfg.Weights.R[:], c.MPC.R)

	b, err := control.ParseBoundary(c.MPC.Boundary)
	if err != nil {
		return cfg, err
	}
	cfg.Boundary = b

	return cfg, cfg.Validate()
}

func (c *Config) SimConfig() (dynamo.Config, error) {
	fb, err := dynamo.ParseFallback(c.Fallback)
	if err != nil {
		return dynamo.Config{}, err
	}
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	cfg.Fallback = fb
	return cfg, nil
}

// Validate checks the settings that do not depend on the registry.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrParameterBounds, c.Duration)
	}
	if c.Duration < c.Dt {
		return fmt.Errorf("%w: duration %g is shorter than one tick", dynamo.ErrParameterBounds, c.Duration)
	}
	if _, err := c.SimConfig(); err != nil {
		return err
	}
	if c.Controller == "mpc" {
		if _, err := c.MPCConfig(); err != nil {
			return err
		}
	}
	if c.Limits.MaxSpeed < 0 || c.Limits.MaxRate < 0 {
		return fmt.Errorf("%w: limits must not be negative", dynamo.ErrParameterBounds)
	}
	return nil
}

// Clone returns a deep copy, so presets can be overridden safely.
func (c *Config) Clone() *Config {
	out := *c
	out.MPC.Q = append([]float64(nil), c.MPC.Q...)
	out.MPC.R = append([]float64(nil), c.MPC.R...)
	return &out
}
