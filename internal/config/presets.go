package config

import "sort"

var Presets = map[string]*Config{
	"line": preset(func(c *Config) {
		c.Trajectory = "line"
		c.InitPose = PoseConfig{X: -1, Y: 0.5, Theta: 0.3}
	}),
	"circle": preset(func(c *Config) {
		c.Trajectory = "circle"
		c.Duration = 30
		c.Path.Radius = 3
		c.InitPose = PoseConfig{X: 0, Y: -2.5, Theta: 0}
	}),
	"figure8": preset(func(c *Config) {
		c.Trajectory = "figure8"
		c.Duration = 40
		c.Path.Amplitude = 3
		c.Path.Rate = 0.2
		c.MPC.Horizon = 10
		c.MPC.Boundary = "extrapolate"
	}),
	"recover": preset(func(c *Config) {
		c.Trajectory = "line"
		c.Duration = 30
		c.InitPose = PoseConfig{X: 0, Y: -3, Theta: 1.5}
		c.MPC.Q = []float64{2, 2, 0.2}
		c.Limits = LimitsConfig{MaxSpeed: 2, MaxRate: 1.5}
	}),
	"hold": preset(func(c *Config) {
		c.Trajectory = "stationary"
		c.Duration = 15
		c.Path.X0, c.Path.Y0 = 1, 1
		c.Fallback = "stop"
	}),
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
