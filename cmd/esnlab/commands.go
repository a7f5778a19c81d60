package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/esnlab/internal/analysis"
	"github.com/san-kum/esnlab/internal/config"
	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/export"
	"github.com/san-kum/esnlab/internal/experiment"
	"github.com/san-kum/esnlab/internal/integrators"
	"github.com/san-kum/esnlab/internal/optim"
	"github.com/san-kum/esnlab/internal/storage"
	"github.com/san-kum/esnlab/internal/viz"
)

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	report, err := evaluate(cmd, cfg)
	if err != nil {
		return err
	}

	printReport(report)
	if err := saveRun(cfg, report); err != nil {
		return err
	}

	if plotAfter {
		opts := viz.PlotOptions{Window: 500}
		fmt.Println()
		fmt.Print(viz.PlotComparison(rows(report.Validation), rows(report.Forecast), opts))
		fmt.Print(viz.PlotErrors(analysis.StepErrors(report.Validation.States, report.Forecast.States),
			report.ValidSteps, cfg.Dt, opts))
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Ensemble = ensembleMembers
	if err := cfg.Validate(); err != nil {
		return err
	}
	runner, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	truth, err := runner.Generate()
	if err != nil {
		return err
	}
	res, err := experiment.NewEnsemble(runner, cfg.Ensemble, cfg.Seed).Run(cmd.Context(), truth)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRMSE\tNRMSE\tVALID\tLYAP_TIMES")
	for _, m := range res.Members {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%d\t%.2f\n", m.Seed, m.RMSE, m.NRMSE, m.ValidSteps, m.LyapunovTimes)
	}
	fmt.Fprintf(w, "mean\t%.4f\t%.4f\t%d\t%.2f\n", res.Mean.RMSE, res.Mean.NRMSE, res.Mean.ValidSteps, res.Mean.LyapunovTimes)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	printReport(res.Mean)
	return saveRun(cfg, res.Mean)
}

func saveRun(cfg *config.Config, report *experiment.Report) error {
	if noSave {
		return nil
	}
	st, err := storage.New(cfg.Storage.Dir, cfg.Storage.Compression, slog.Default())
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, report, cfg.Ensemble)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

// evaluate runs a single reservoir, or an averaged ensemble when
// cfg.Ensemble is larger than one.
func evaluate(cmd *cobra.Command, cfg *config.Config) (*experiment.Report, error) {
	runner, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	if cfg.Ensemble <= 1 {
		return runner.Run(cmd.Context())
	}

	truth, err := runner.Generate()
	if err != nil {
		return nil, err
	}
	res, err := experiment.NewEnsemble(runner, cfg.Ensemble, cfg.Seed).Run(cmd.Context(), truth)
	if err != nil {
		return nil, err
	}
	for _, m := range res.Members {
		slog.Debug("member", "seed", m.Seed, "rmse", m.RMSE, "valid_steps", m.ValidSteps)
	}
	return res.Mean, nil
}

func printReport(r *experiment.Report) {
	fmt.Printf("fingerprint: %s\n", r.Fingerprint)
	fmt.Printf("train steps: %d\n", r.Train.Len())
	fmt.Printf("forecast steps: %d\n", r.Forecast.Len())
	fmt.Printf("elapsed: %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Println("\nmetrics:")
	metrics := r.Metrics()
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		fmt.Printf("  %-15s %.6f\n", name, metrics[name])
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (tunable: %v)", experiment.TunableParams())
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, values, err := parseParam(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := optim.NewGridSearch(names, ranges, slog.Default())
	if err != nil {
		return err
	}

	runner, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	truth, err := runner.Generate()
	if err != nil {
		return err
	}

	fmt.Printf("searching %d combinations, metric %s\n", gs.Size(), sweepMetric)
	res, err := gs.Search(cmd.Context(), func(ctx context.Context, params map[string]float64) (*experiment.Report, error) {
		child, err := runner.WithParams(params)
		if err != nil {
			return nil, err
		}
		return child.Evaluate(ctx, truth, cfg.Seed)
	}, sweepMetric)
	if err != nil {
		return err
	}

	fmt.Printf("\nevaluated %d, failed %d\n", res.Evaluated, res.Failed)
	fmt.Println("best parameters:")
	for _, name := range slices.Sorted(maps.Keys(res.Params)) {
		fmt.Printf("  %-12s %g\n", name, res.Params[name])
	}
	fmt.Println()
	printReport(res.Report)
	return nil
}

// parseParam parses "name=v1,v2,...".
func parseParam(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid --param %q, want name=v1,v2", spec)
	}
	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	start := time.Now()
	lambda := runner.Lyapunov()
	fmt.Printf("sigma=%g rho=%g beta=%.4f integrator=%s dt=%g\n",
		cfg.System.Sigma, cfg.System.Rho, cfg.System.Beta, cfg.Integrator, cfg.Dt)
	fmt.Printf("largest lyapunov exponent: %.4f\n", lambda)
	if lambda > 0 {
		fmt.Printf("lyapunov time: %.4f (%d steps)\n", 1/lambda, int(1/(lambda*cfg.Dt)))
	} else {
		fmt.Println("no positive exponent, trajectory is not chaotic")
	}
	fmt.Printf("elapsed: %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// compareIntegrators scores each integrator against RK4 run at a tenth of
// the step size.
func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	x0 := dynamo.State(cfg.InitState)

	const refine = 10
	fine, err := integrators.IntegrateLorenz(x0, cfg.Dt/refine, cfg.System, cfg.Steps*refine, integrators.PolicyRK4)
	if err != nil {
		return err
	}
	ref := make([]dynamo.State, 0, cfg.Steps+1)
	for i := 0; i < fine.Len(); i += refine {
		ref = append(ref, fine.States[i])
	}

	fmt.Printf("comparing integrators (dt=%.4f, steps=%d)\n\n", cfg.Dt, cfg.Steps)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "final_x", "valid_steps", "time_ms")
	fmt.Println(strings.Repeat("-", 52))

	for _, name := range integrators.Names() {
		start := time.Now()
		tr, err := integrators.IntegrateLorenz(x0, cfg.Dt, cfg.System, cfg.Steps, integrators.Policy(name))
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}
		final := tr.States[tr.Len()-1]
		valid := analysis.ValidTime(ref, tr.States, analysis.DefaultValidThreshold)
		fmt.Printf("%-12s  %12.6f  %12d  %12.2f\n", name, final[0], valid, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSEED\tMEMBERS\tTRAIN\tFORECAST\tRMSE\tVALID")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Members,
			run.TrainSteps,
			run.ForecastSteps,
			metric(run.Metrics, "rmse", "%.4f"),
			metric(run.Metrics, "valid_steps", "%.0f"),
		)
	}

	return w.Flush()
}

func metric(m map[string]float64, name, format string) string {
	v, ok := m[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// storedRun is a run loaded back from disk with the truth trimmed to the
// forecast window.
type storedRun struct {
	meta       *storage.RunMetadata
	truth      *dynamo.Trajectory
	validation *dynamo.Trajectory
	forecast   *dynamo.Trajectory
}

func loadRun(runID string) (*storedRun, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	truth, err := st.LoadSeries(runID, storage.SeriesTruth)
	if err != nil {
		return nil, err
	}
	forecast, err := st.LoadSeries(runID, storage.SeriesForecast)
	if err != nil {
		return nil, err
	}
	if forecast.Len() > truth.Len() {
		return nil, fmt.Errorf("run %s: forecast longer than truth", runID)
	}
	_, validation := truth.SplitAt(truth.Len() - forecast.Len())
	return &storedRun{meta: meta, truth: truth, validation: validation, forecast: forecast}, nil
}

func (r *storedRun) dt() float64 {
	if r.meta.Config != nil {
		return r.meta.Config.Dt
	}
	return config.DefaultDt
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", run.meta.ID)
	fmt.Printf("forecast steps: %d\n\n", run.forecast.Len())

	opts := viz.PlotOptions{Width: width, Height: height, Window: window}
	fmt.Print(viz.PlotComparison(rows(run.validation), rows(run.forecast), opts))
	errs := analysis.StepErrors(run.validation.States, run.forecast.States)
	valid := int(run.meta.Metrics["valid_steps"])
	fmt.Print(viz.PlotErrors(errs, valid, run.dt(), opts))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	dim := run.truth.Dim()
	if xAxis < 0 || xAxis >= dim || yAxis < 0 || yAxis >= dim {
		return fmt.Errorf("axis out of range (state has %d components)", dim)
	}

	var truthP, predP *analysis.PhasePortrait2D
	if poincare {
		level := 27.0
		if run.meta.Config != nil {
			level = run.meta.Config.System.Rho - 1
		}
		truthP = analysis.PoincareSection(run.validation, 2, level, xAxis, yAxis, '.')
		predP = analysis.PoincareSection(run.forecast, 2, level, xAxis, yAxis, '*')
		fmt.Printf("poincare section z = %g, %d truth and %d forecast crossings\n",
			level, len(truthP.Points), len(predP.Points))
	} else {
		truthP = analysis.NewPhasePortrait(run.validation, xAxis, yAxis, '.')
		predP = analysis.NewPhasePortrait(run.forecast, xAxis, yAxis, '*')
		fmt.Printf("%s vs %s, '.' truth, '*' forecast\n",
			storage.ComponentName(yAxis, dim), storage.ComponentName(xAxis, dim))
	}
	fmt.Println(analysis.PhasePortraitToASCII(phaseWidth, phaseHeight, truthP, predP))

	if svgFile != "" {
		if err := writePhaseSVG(run); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func writePhaseSVG(run *storedRun) error {
	f, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	truth, forecast := rows(run.validation), rows(run.forecast)
	if svgDots {
		canvas := viz.NewCanvas(phaseWidth, phaseHeight)
		proj := viz.NewProjector(truth...)
		proj.Angle = 0.6
		proj.DrawTrail(canvas, forecast)
		_, err := io.WriteString(f, export.CanvasToSVG(canvas, 4, "#ff5f87"))
		return err
	}
	return export.PhaseSVG(f, []export.Series{
		{Name: "truth", Color: "#5fff87", States: truth},
		{Name: "forecast", Color: "#ff5f87", States: forecast},
	}, xAxis, yAxis, 800, 600)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return st.ExportCSV(args[0], out)
}

func runLive(cmd *cobra.Command, args []string) error {
	var replay viz.Replay
	if len(args) == 1 {
		run, err := loadRun(args[0])
		if err != nil {
			return err
		}
		replay = viz.Replay{
			Title:      run.meta.ID,
			Dt:         run.dt(),
			Truth:      rows(run.validation),
			Forecast:   rows(run.forecast),
			Errors:     analysis.StepErrors(run.validation.States, run.forecast.States),
			ValidSteps: int(run.meta.Metrics["valid_steps"]),
		}
	} else {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		report, err := evaluate(cmd, cfg)
		if err != nil {
			return err
		}
		replay = viz.Replay{
			Title:      "lorenz " + report.Fingerprint[:8],
			Dt:         cfg.Dt,
			Truth:      rows(report.Validation),
			Forecast:   rows(report.Forecast),
			Errors:     analysis.StepErrors(report.Validation.States, report.Forecast.States),
			ValidSteps: report.ValidSteps,
		}
	}
	return viz.RunLive(replay)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("available presets:")
	for _, name := range config.ListPresets() {
		fmt.Printf("  %-12s %s\n", name, config.Presets[name].Description)
	}
	return nil
}

func rows(tr *dynamo.Trajectory) [][]float64 {
	out := make([][]float64, tr.Len())
	for i, s := range tr.States {
		out[i] = s
	}
	return out
}
