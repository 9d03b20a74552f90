package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/unimpc/internal/config"
	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/experiment"
	"github.com/san-kum/unimpc/internal/storage"
	"github.com/san-kum/unimpc/internal/viz"
)

var (
	dataDir  string
	logLevel string
	// Config file
	configFile string
	// Preset name
	preset string

	trajectoryName string
	integrator     string
	controller     string
	dt             float64
	duration       float64
	fallback       string

	// Initial pose
	poseX     float64
	poseY     float64
	poseTheta float64

	// MPC tuning
	horizon  int
	qWeights []float64
	rWeights []float64
	boundary string

	// PID tuning
	kp float64
	ki float64
	kd float64

	maxSpeed float64
	maxRate  float64

	jsonOut string
	noSave  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "unimpc",
		Short:        "trajectory-tracking MPC for unicycle robots",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".unimpc", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop tracking simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also write the full trace as JSON (- for stdout)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "write the path as SVG to this file instead of JSON")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Printf("  %-10s %s, %s, %.0fs\n", name, p.Trajectory, p.Controller, p.Duration)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, newTickCmd(), newTuneCmd(), newScenarioCmd(), newMonteCarloCmd(), listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
	return nil
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&trajectoryName, "trajectory", "line", "reference trajectory")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.StringVar(&controller, "controller", "mpc", "controller (mpc, feedforward, pid, none)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "tick period")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.StringVar(&fallback, "fallback", "hold", "command on a failed tick (hold, stop, abort)")
	f.Float64Var(&poseX, "x", 0, "initial x")
	f.Float64Var(&poseY, "y", 0, "initial y")
	f.Float64Var(&poseTheta, "theta", 0, "initial heading")
	f.IntVar(&horizon, "horizon", 5, "mpc horizon")
	f.Float64SliceVar(&qWeights, "q", []float64{1, 1, 0.5}, "mpc state weights x,y,theta")
	f.Float64SliceVar(&rWeights, "r", []float64{0.1, 0.1}, "mpc input weights v,omega")
	f.StringVar(&boundary, "boundary", "zero", "last horizon step (zero, extrapolate)")
	f.Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	f.Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	f.Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	f.Float64Var(&maxSpeed, "max-speed", 0, "plant speed limit (0 = none)")
	f.Float64Var(&maxRate, "max-rate", 0, "plant turn-rate limit (0 = none)")
}

// resolveConfig starts from a preset or config file, or the defaults, and
// applies only the flags the user set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	// config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("trajectory") {
		cfg.Trajectory = trajectoryName
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("fallback") {
		cfg.Fallback = fallback
	}
	if flags.Changed("x") {
		cfg.InitPose.X = poseX
	}
	if flags.Changed("y") {
		cfg.InitPose.Y = poseY
	}
	if flags.Changed("theta") {
		cfg.InitPose.Theta = poseTheta
	}
	if flags.Changed("horizon") {
		cfg.MPC.Horizon = horizon
	}
	if flags.Changed("q") {
		cfg.MPC.Q = qWeights
	}
	if flags.Changed("r") {
		cfg.MPC.R = rWeights
	}
	if flags.Changed("boundary") {
		cfg.MPC.Boundary = boundary
	}
	if flags.Changed("kp") {
		cfg.ControllerParams.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.ControllerParams.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.ControllerParams.Kd = kd
	}
	if flags.Changed("max-speed") {
		cfg.Limits.MaxSpeed = maxSpeed
	}
	if flags.Changed("max-rate") {
		cfg.Limits.MaxRate = maxRate
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"trajectory": cfg.Trajectory,
		"controller": cfg.Controller,
		"dt":         cfg.Dt,
		"duration":   cfg.Duration,
	}).Info("running simulation")
	start := time.Now()

	result, runErr := exp.Run(context.Background())
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	meta := exp.Metadata()
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		meta.ID = runID
		fmt.Printf("run id: %s\n", runID)
	}

	if jsonOut != "" {
		if err := writeJSON(jsonOut, meta, result); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	fmt.Print(viz.MetricsTable(result.Metrics))

	// an aborted run is still stored so it can be inspected
	return runErr
}

func writeJSON(path string, meta storage.RunMetadata, result *dynamo.Result) error {
	if path == "-" {
		return storage.ExportJSON(os.Stdout, meta, result)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return storage.ExportJSON(f, meta, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	// log lines would tear the alternate screen
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	name := fmt.Sprintf("%s / %s", cfg.Trajectory, cfg.Controller)
	m := viz.NewModel(exp.GetSimulator(), exp.Trajectory(), cfg.GetInitState(), simCfg, name)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
