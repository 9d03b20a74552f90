package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/unimpc/internal/experiment"
	"github.com/san-kum/unimpc/internal/optim"
)

var (
	tuneParams []string
	tuneMetric string
	tuneTop    int
	parallel   int
)

// newTuneCmd searches MPC weights offline by simulating every grid point.
func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tune",
		Short:   "grid-search MPC tuning in simulation",
		Example: "  unimpc tune --preset circle --param q_xy=0.5,1,2 --param r_omega=0.05,0.1,0.5",
		Args:    cobra.NoArgs,
		RunE:    runTune,
	}
	addRunFlags(cmd)
	cmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&tuneMetric, "metric", "tracking_rmse", "metric to minimise")
	cmd.Flags().IntVar(&tuneTop, "top", 5, "trials to print")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = unbounded)")
	return cmd
}

func parseGrid(args []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", arg)
		}
		if _, known := optim.Params[name]; !known {
			return nil, nil, fmt.Errorf("unknown parameter %q (available: %v)", name, optim.ListParams())
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if base.Controller != "mpc" {
		return fmt.Errorf("tune needs the mpc controller, got %s", base.Controller)
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("no --param given (available: %v)", optim.ListParams())
	}

	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	gs := optim.NewGridSearch(names, ranges)
	gs.Parallel = parallel

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := optim.Apply(base, params)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(reg); err != nil {
			log.WithFields(log.Fields{"params": params, "error": err}).Warn("skipping grid point")
			return nil, err
		}
		return exp, nil
	}

	best, val, trials, err := gs.Search(context.Background(), build, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for i, tr := range trials {
		if i >= tuneTop {
			break
		}
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(tr.Params[n], 'g', -1, 64))
		}
		row = append(row, fmt.Sprintf("%.5f", tr.Value))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s %.5f with %v (%d trials)\n", tuneMetric, val, best, len(trials))
	return nil
}
