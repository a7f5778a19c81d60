package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/esnlab/internal/config"
	"github.com/san-kum/esnlab/internal/storage"
)

var (
	dataDir     string
	compression string
	logLevel    string

	configFile string
	preset     string

	integrator      string
	dt              float64
	steps           int
	seed            int64
	trainFraction   float64
	resDim          int
	resRho          float64
	inputScale      float64
	density         float64
	ridgeBeta       float64
	noRecurrence    bool
	members         int
	ensembleMembers int
	noSave          bool
	plotAfter       bool

	sweepParams []string
	sweepMetric string

	xAxis    int
	yAxis    int
	poincare bool
	window   int
	width    int
	height   int

	phaseWidth  int
	phaseHeight int
	svgFile     string
	svgDots     bool

	outFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "esnlab",
		Short:         "reservoir computing lab for the lorenz system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStorageDir, "run storage directory")
	rootCmd.PersistentFlags().StringVar(&compression, "compression", config.DefaultCompression, "series compression (none, zstd, s2, lz4)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "train a reservoir on a lorenz trajectory and score its forecast",
		Args:  cobra.NoArgs,
		RunE:  runExperiment,
	}
	addExperimentFlags(runCmd)
	runCmd.Flags().IntVar(&members, "ensemble", 1, "number of reservoirs averaged into the forecast")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&plotAfter, "plot", false, "plot the forecast after the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search reservoir hyperparameters",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addExperimentFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "valid_steps", "metric to optimise")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "average the forecasts of reservoirs with consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addExperimentFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ensembleMembers, "members", 5, "number of reservoirs")
	ensembleCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest lyapunov exponent of the configured system",
		Args:  cobra.NoArgs,
		RunE:  runLyapunov,
	}
	addExperimentFlags(lyapunovCmd)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare euler and rk4 against a fine rk4 reference",
		Args:  cobra.NoArgs,
		RunE:  compareIntegrators,
	}
	addExperimentFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot forecast against truth",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addPlotFlags(plotCmd)

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "ascii phase portrait of truth and forecast",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x", 0, "state index for the x axis")
	phaseCmd.Flags().IntVar(&yAxis, "y", 2, "state index for the y axis")
	phaseCmd.Flags().BoolVar(&poincare, "poincare", false, "plot the poincare section z = rho-1 instead")
	phaseCmd.Flags().IntVar(&phaseWidth, "width", 72, "plot width")
	phaseCmd.Flags().IntVar(&phaseHeight, "height", 28, "plot height")
	phaseCmd.Flags().StringVar(&svgFile, "svg", "", "also write the portrait to an svg file")
	phaseCmd.Flags().BoolVar(&svgDots, "dots", false, "svg: draw the rotated 3d projection of the forecast as braille dots")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export truth and forecast to csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "replay a forecast in the terminal",
		Long:  "replay a stored run, or train a fresh reservoir when no run id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addExperimentFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, sweepCmd, lyapunovCmd, compareCmd, listCmd, showCmd,
		plotCmd, phaseCmd, exportCSVCmd, liveCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	})))
	return nil
}

func addExperimentFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&integrator, "integrator", def.Integrator, "integrator (euler, rk4)")
	f.Float64Var(&dt, "dt", def.Dt, "timestep")
	f.IntVar(&steps, "steps", def.Steps, "number of integration steps")
	f.Int64Var(&seed, "seed", def.Seed, "reservoir seed")
	f.Float64Var(&trainFraction, "train-fraction", def.TrainFraction, "leading fraction of the trajectory used for training")
	f.IntVar(&resDim, "dim", def.Reservoir.Dim, "reservoir size")
	f.Float64Var(&resRho, "rho", def.Reservoir.Rho, "spectral radius of the adjacency matrix")
	f.Float64Var(&inputScale, "input-scale", def.Reservoir.InputScale, "input weight scale")
	f.Float64Var(&density, "density", def.Reservoir.Density, "edge probability of the reservoir graph")
	f.Float64Var(&ridgeBeta, "beta", def.Reservoir.RidgeBeta, "ridge regularisation")
	f.BoolVar(&noRecurrence, "no-recurrence", false, "zero the adjacency matrix (feed-forward ablation)")
}

func addPlotFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&window, "window", 500, "forecast steps to plot (0 for all)")
	cmd.Flags().IntVar(&width, "width", 70, "plot width")
	cmd.Flags().IntVar(&height, "height", 10, "plot height")
}

// resolveConfig builds the run configuration. A config file replaces the
// preset, and explicitly set flags override both.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("train-fraction") {
		cfg.TrainFraction = trainFraction
	}
	if f.Changed("dim") {
		cfg.Reservoir.Dim = resDim
	}
	if f.Changed("rho") {
		cfg.Reservoir.Rho = resRho
	}
	if f.Changed("input-scale") {
		cfg.Reservoir.InputScale = inputScale
	}
	if f.Changed("density") {
		cfg.Reservoir.Density = density
	}
	if f.Changed("beta") {
		cfg.Reservoir.RidgeBeta = ridgeBeta
	}
	if f.Changed("no-recurrence") {
		cfg.Reservoir.DisableRecurrence = noRecurrence
	}
	if f.Lookup("ensemble") != nil && f.Changed("ensemble") {
		cfg.Ensemble = members
	}
	if root := cmd.Root().PersistentFlags(); root.Changed("data") || cfg.Storage.Dir == "" {
		cfg.Storage.Dir = dataDir
	}
	if root := cmd.Root().PersistentFlags(); root.Changed("compression") || cfg.Storage.Compression == "" {
		cfg.Storage.Compression = compression
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	return storage.New(dataDir, compression, slog.Default())
}
