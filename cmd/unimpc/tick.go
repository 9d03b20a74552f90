package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/unimpc/internal/control"
	"github.com/san-kum/unimpc/internal/dynamo"
)

// newTickCmd runs the control law once from flags and prints the command,
// so a single tick can be checked without a simulation.
func newTickCmd() *cobra.Command {
	var (
		sp       dynamo.Setpoint
		pose     control.Pose
		period   float64
		n        int
		q, r     []float64
		boundary string
		align    bool
	)

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "compute one MPC command from a setpoint and a pose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := control.DefaultConfig()
			cfg.Horizon = n

			if len(q) != control.StateDim || len(r) != control.InputDim {
				return fmt.Errorf("%w: need %d q and %d r weights", dynamo.ErrParameterBounds, control.StateDim, control.InputDim)
			}
			copy(cfg.Weights.Q[:], q)
			copy(cfg.Weights.R[:], r)

			b, err := control.ParseBoundary(boundary)
			if err != nil {
				return err
			}
			cfg.Boundary = b

			if align {
				sp, pose = control.AlignToReference(sp, pose)
			}

			out, err := control.Tick(cfg, control.TickInput{Setpoint: sp, Pose: pose, Dt: period})
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&sp.X, "sx", 0, "desired x")
	f.Float64Var(&sp.Y, "sy", 0, "desired y")
	f.Float64Var(&sp.VX, "svx", 0, "desired x velocity")
	f.Float64Var(&sp.VY, "svy", 0, "desired y velocity")
	f.Float64Var(&pose.X, "x", 0, "current x")
	f.Float64Var(&pose.Y, "y", 0, "current y")
	f.Float64Var(&pose.Theta, "theta", 0, "current heading")
	f.Float64Var(&period, "dt", 0.1, "tick period")
	f.IntVar(&n, "horizon", control.DefaultHorizon, "mpc horizon")
	f.Float64SliceVar(&q, "q", []float64{1, 1, 0.5}, "state weights x,y,theta")
	f.Float64SliceVar(&r, "r", []float64{0.1, 0.1}, "input weights v,omega")
	f.StringVar(&boundary, "boundary", "zero", "last horizon step (zero, extrapolate)")
	f.BoolVar(&align, "align", false, "solve in the reference-aligned frame, as the mpc controller does")
	return cmd
}
