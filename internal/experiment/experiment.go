package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/esnlab/internal/analysis"
	"github.com/san-kum/esnlab/internal/config"
	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/integrators"
	"github.com/san-kum/esnlab/internal/physics"
	"github.com/san-kum/esnlab/internal/reservoir"
)

// lyapunovDuration is the simulated time used to estimate the largest
// Lyapunov exponent of the configured system.
const lyapunovDuration = 100.0

// Runner executes the generate, split, train, predict and score pipeline for
// one configuration. Evaluate may be called concurrently.
type Runner struct {
	cfg *config.Config
	log *slog.Logger

	lyapOnce sync.Once
	lyap     float64
}

func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg.Clone(), log: logger}, nil
}

func (r *Runner) Config() *config.Config { return r.cfg.Clone() }

// Generate integrates the configured Lorenz system. A trajectory that leaves
// the finite range is reported as ErrNumericDivergence.
func (r *Runner) Generate() (*dynamo.Trajectory, error) {
	start := time.Now()
	tr, err := integrators.IntegrateLorenz(dynamo.State(r.cfg.InitState), r.cfg.Dt, r.cfg.System,
		r.cfg.Steps, integrators.Policy(r.cfg.Integrator))
	if err != nil {
		return nil, err
	}
	if err := tr.CheckFinite(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	r.log.Debug("trajectory generated", "steps", r.cfg.Steps, "integrator", r.cfg.Integrator,
		"elapsed", time.Since(start))
	return tr, nil
}

// Lyapunov returns the largest Lyapunov exponent of the configured system,
// computed once from the configured initial state.
func (r *Runner) Lyapunov() float64 {
	r.lyapOnce.Do(func() {
		integ, err := integrators.New(integrators.Policy(r.cfg.Integrator))
		if err != nil {
			return
		}
		r.lyap = analysis.LyapunovExponent(physics.NewLorenzWith(r.cfg.System), integ,
			dynamo.State(r.cfg.InitState), r.cfg.Dt, lyapunovDuration, 1e-8)
	})
	return r.lyap
}

// Run generates ground truth and evaluates a reservoir seeded with the
// configured seed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	truth, err := r.Generate()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Evaluate(ctx, truth, r.cfg.Seed)
}

// Evaluate trains a fresh reservoir seeded with seed on the leading
// train_fraction of truth and forecasts the remainder.
func (r *Runner) Evaluate(ctx context.Context, truth *dynamo.Trajectory, seed int64) (*Report, error) {
	start := time.Now()
	train, validation := truth.Split(r.cfg.TrainFraction)
	if train.Len() == 0 || validation.Len() == 0 {
		return nil, fmt.Errorf("split %d states at %g: %w", truth.Len(), r.cfg.TrainFraction, dynamo.ErrShapeMismatch)
	}

	rc, err := reservoir.New(ReservoirConfig(r.cfg, seed, r.log))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := rc.Train(train.States); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	forecast, err := rc.Predict(validation.Len())
	if err != nil {
		return nil, err
	}
	if len(validation.Times) == validation.Len() {
		forecast.Times = append([]float64(nil), validation.Times...)
	}

	report := Score(truth, train, validation, forecast, r.cfg.Dt, r.Lyapunov())
	report.Seed = seed
	report.Fingerprint = r.cfg.FingerprintHex()
	report.Elapsed = time.Since(start)

	r.log.Info("forecast scored", "seed", seed, "rmse", report.RMSE,
		"valid_steps", report.ValidSteps, "lyapunov_times", report.LyapunovTimes,
		"elapsed", report.Elapsed)
	return report, nil
}

// ReservoirConfig maps an experiment configuration onto reservoir
// construction parameters.
func ReservoirConfig(cfg *config.Config, seed int64, logger *slog.Logger) reservoir.Config {
	return reservoir.Config{
		SystemDim:         len(cfg.InitState),
		ReservoirDim:      cfg.Reservoir.Dim,
		Rho:               cfg.Reservoir.Rho,
		InputScale:        cfg.Reservoir.InputScale,
		Density:           cfg.Reservoir.Density,
		RidgeBeta:         cfg.Reservoir.RidgeBeta,
		DisableRecurrence: cfg.Reservoir.DisableRecurrence,
		Seed:              seed,
		Logger:            logger,
	}
}

// WithParams derives a runner with overridden reservoir parameters. The
// Lyapunov estimate is shared since the system is unchanged.
func (r *Runner) WithParams(params map[string]float64) (*Runner, error) {
	cfg, err := WithParams(r.cfg, params)
	if err != nil {
		return nil, err
	}
	lambda := r.Lyapunov()
	child := &Runner{cfg: cfg, log: r.log}
	child.lyapOnce.Do(func() { child.lyap = lambda })
	return child, nil
}
