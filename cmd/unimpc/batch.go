package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/unimpc/internal/automation"
	"github.com/san-kum/unimpc/internal/experiment"
)

var (
	trials        int
	poseSpread    float64
	headingSpread float64
	tolerance     float64
	mcSeed        int64
)

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a scenario file and compare metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = unbounded)")
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(context.Background(), sc, experiment.NewRegistry(), parallel)
	if err != nil {
		return err
	}

	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTRAJ\tCTRL\tRMSE\tMAX ERR\tEFFORT\tFAILED")
	for _, r := range results {
		m := r.Result.Metrics
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%d\n",
			r.Name,
			r.Config.Trajectory,
			r.Config.Controller,
			m["tracking_rmse"],
			m["max_tracking_error"],
			m["control_effort"],
			r.Result.FailedTicks,
		)
	}
	return w.Flush()
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check convergence from randomly perturbed initial poses",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	cmd.Flags().Float64Var(&poseSpread, "spread", 1.0, "max position perturbation")
	cmd.Flags().Float64Var(&headingSpread, "heading-spread", 0.5, "max heading perturbation (rad)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0.1, "final position error counted as converged")
	cmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = unbounded)")
	return cmd
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
		Base:          base,
		NumTrials:     trials,
		PoseSpread:    poseSpread,
		HeadingSpread: headingSpread,
		Tolerance:     tolerance,
		Seed:          mcSeed,
		Parallel:      parallel,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	worst := results[0]
	for _, r := range results {
		if r.FinalError > worst.FinalError {
			worst = r
		}
	}

	converged, diverged := automation.MonteCarloStats(results)
	fmt.Printf("converged: %d/%d (tolerance %.3f)\n", converged, len(results), tolerance)
	fmt.Printf("diverged:  %d\n", diverged)
	fmt.Printf("worst trial %d from (%.2f, %.2f, %.2f): final error %.4f\n",
		worst.TrialID, worst.InitState[0], worst.InitState[1], worst.InitState[2], worst.FinalError)
	return nil
}
