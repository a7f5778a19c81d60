package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// Ensemble trains numRuns reservoirs with seeds seedStart..seedStart+numRuns-1
// on the same ground truth and averages their forecasts.
type Ensemble struct {
	base      *Runner
	numRuns   int
	seedStart int64
	log       *slog.Logger
}

func NewEnsemble(r *Runner, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: r, numRuns: numRuns, seedStart: seedStart, log: r.log}
}

type EnsembleResult struct {
	Members []*Report
	Mean    *Report
}

// Run evaluates every member concurrently. Each member owns its reservoir;
// results are ordered by seed. The first member error is returned.
func (e *Ensemble) Run(ctx context.Context, truth *dynamo.Trajectory) (*EnsembleResult, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one member, got %d", e.numRuns)
	}
	results := make([]*Report, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.base.Evaluate(ctx, truth, e.seedStart+int64(idx))
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("member %d (seed %d): %w", i, e.seedStart+int64(i), err)
		}
	}

	mean := meanForecast(results)
	first := results[0]
	report := Score(truth, first.Train, first.Validation, mean, e.base.cfg.Dt, e.base.Lyapunov())
	report.Seed = e.seedStart
	report.Fingerprint = first.Fingerprint

	e.log.Info("ensemble scored", "members", e.numRuns, "rmse", report.RMSE,
		"valid_steps", report.ValidSteps)
	return &EnsembleResult{Members: results, Mean: report}, nil
}

func meanForecast(reports []*Report) *dynamo.Trajectory {
	first := reports[0].Forecast
	mean := dynamo.NewTrajectory(first.Len(), first.Dim())
	if len(first.Times) == first.Len() {
		mean.Times = append([]float64(nil), first.Times...)
	}
	for _, r := range reports {
		for i, s := range r.Forecast.States {
			for k, v := range s {
				mean.States[i][k] += v
			}
		}
	}
	n := float64(len(reports))
	for _, s := range mean.States {
		for k := range s {
			s[k] /= n
		}
	}
	return mean
}
