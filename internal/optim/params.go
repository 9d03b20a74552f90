package optim

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/unimpc/internal/config"
)

// Tunable MPC parameters understood by Apply.
var Params = map[string]func(*config.Config, float64){
	"q_xy": func(c *config.Config, v float64) {
		c.MPC.Q[0], c.MPC.Q[1] = v, v
	},
	"q_theta": func(c *config.Config, v float64) { c.MPC.Q[2] = v },
	"r_v":     func(c *config.Config, v float64) { c.MPC.R[0] = v },
	"r_omega": func(c *config.Config, v float64) { c.MPC.R[1] = v },
	"horizon": func(c *config.Config, v float64) { c.MPC.Horizon = int(math.Round(v)) },
}

// Apply returns a copy of base with params set.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	if len(cfg.MPC.Q) != 3 || len(cfg.MPC.R) != 2 {
		return nil, fmt.Errorf("base config needs 3 Q and 2 R weights")
	}
	for name, v := range params {
		set, ok := Params[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter: %s", name)
		}
		set(cfg, v)
	}
	return cfg, nil
}

func ListParams() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
