package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/san-kum/esnlab/internal/experiment"
)

// maximised lists report metrics where larger is better. They are negated
// so that the search always minimises.
var maximised = map[string]bool{
	"valid_steps":    true,
	"valid_time":     true,
	"lyapunov_times": true,
}

// EvaluateFunc scores one parameter combination.
type EvaluateFunc func(ctx context.Context, params map[string]float64) (*experiment.Report, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        *slog.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger *slog.Logger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameter names but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s", params[i])
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: logger}, nil
}

// Size is the number of combinations in the grid.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

type Result struct {
	Params    map[string]float64
	Score     float64
	Report    *experiment.Report
	Evaluated int
	Failed    int
}

// Objective returns the value minimised for metricName.
func Objective(r *experiment.Report, metricName string) (float64, error) {
	v, ok := r.Metrics()[metricName]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metricName)
	}
	if maximised[metricName] {
		v = -v
	}
	if math.IsNaN(v) {
		v = math.Inf(1)
	}
	return v, nil
}

// Search evaluates every combination and returns the one minimising
// metricName. Combinations whose evaluation fails are skipped and counted;
// cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, evaluate EvaluateFunc, metricName string) (*Result, error) {
	res := &Result{Score: math.Inf(1)}
	err := g.searchRecursive(ctx, 0, make(map[string]float64), evaluate, metricName, res)
	if err != nil {
		return nil, err
	}
	if res.Params == nil {
		return res, fmt.Errorf("grid search: all %d combinations failed", res.Failed)
	}
	g.log.Info("grid search done", "evaluated", res.Evaluated, "failed", res.Failed,
		"metric", metricName, "best", res.Score, "params", res.Params)
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate EvaluateFunc,
	metricName string,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		report, err := evaluate(ctx, current)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			res.Failed++
			g.log.Debug("combination failed", "params", current, "err", err)
			return nil
		}
		res.Evaluated++

		val, err := Objective(report, metricName)
		if err != nil {
			return err
		}
		g.log.Debug("combination scored", "params", current, metricName, val)
		if res.Params == nil || val < res.Score {
			res.Score = val
			res.Params = maps.Clone(current)
			res.Report = report
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, evaluate, metricName, res); err != nil {
			return err
		}
	}
	return nil
}
