package optim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/esnlab/internal/config"
	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/experiment"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeEvaluate(calls *int) EvaluateFunc {
	return func(_ context.Context, p map[string]float64) (*experiment.Report, error) {
		*calls++
		if p["rho"] == 0 {
			return nil, dynamo.ErrDegenerateConstruction
		}
		// minimum at rho=1.0, density=0.1
		rmse := (p["rho"]-1.0)*(p["rho"]-1.0) + (p["density"]-0.1)*(p["density"]-0.1)
		return &experiment.Report{RMSE: rmse, ValidSteps: int(100 * p["rho"])}, nil
	}
}

func TestGridSearch_FindsMinimum(t *testing.T) {
	g, err := NewGridSearch([]string{"rho", "density"}, [][]float64{{0, 0.5, 1.0, 1.5}, {0.05, 0.1, 0.2}}, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 12, g.Size())

	calls := 0
	res, err := g.Search(context.Background(), fakeEvaluate(&calls), "rmse")
	require.NoError(t, err)
	require.Equal(t, 12, calls)
	require.Equal(t, 9, res.Evaluated)
	require.Equal(t, 3, res.Failed)
	require.Equal(t, map[string]float64{"rho": 1.0, "density": 0.1}, res.Params)
	require.InDelta(t, 0, res.Score, 1e-12)
}

func TestGridSearch_MaximisedMetric(t *testing.T) {
	g, err := NewGridSearch([]string{"rho"}, [][]float64{{0.5, 1.0, 1.5}}, quietLogger())
	require.NoError(t, err)

	calls := 0
	res, err := g.Search(context.Background(), fakeEvaluate(&calls), "valid_steps")
	require.NoError(t, err)
	require.Equal(t, 1.5, res.Params["rho"])
	require.Equal(t, -150.0, res.Score)
}

func TestGridSearch_Errors(t *testing.T) {
	_, err := NewGridSearch([]string{"rho"}, nil, nil)
	require.Error(t, err)
	_, err = NewGridSearch([]string{"rho"}, [][]float64{{}}, nil)
	require.Error(t, err)

	g, err := NewGridSearch([]string{"rho"}, [][]float64{{0}}, quietLogger())
	require.NoError(t, err)
	calls := 0
	_, err = g.Search(context.Background(), fakeEvaluate(&calls), "rmse")
	require.ErrorContains(t, err, "all 1 combinations failed")

	g, err = NewGridSearch([]string{"rho"}, [][]float64{{1}}, quietLogger())
	require.NoError(t, err)
	_, err = g.Search(context.Background(), fakeEvaluate(&calls), "accuracy")
	require.ErrorContains(t, err, "unknown metric")
}

func TestGridSearch_Cancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"rho"}, [][]float64{{1, 2, 3}}, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	eval := func(ctx context.Context, p map[string]float64) (*experiment.Report, error) {
		calls++
		cancel()
		return nil, errors.New("interrupted")
	}
	_, err = g.Search(ctx, eval, "rmse")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestGridSearch_WithRunner(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Steps = 1500
	cfg.Reservoir.Dim = 40
	cfg.Reservoir.Density = 0.2

	runner, err := experiment.New(cfg, quietLogger())
	require.NoError(t, err)
	truth, err := runner.Generate()
	require.NoError(t, err)

	eval := func(ctx context.Context, p map[string]float64) (*experiment.Report, error) {
		r, err := runner.WithParams(p)
		if err != nil {
			return nil, err
		}
		return r.Evaluate(ctx, truth, cfg.Seed)
	}

	g, err := NewGridSearch([]string{"rho", "ridge_beta"}, [][]float64{{0.8, 1.1}, {1e-6, 1e-4}}, quietLogger())
	require.NoError(t, err)
	res, err := g.Search(context.Background(), eval, "rmse")
	require.NoError(t, err)
	require.Equal(t, 4, res.Evaluated)
	require.NotNil(t, res.Report)
	require.Equal(t, res.Score, res.Report.RMSE)
}
