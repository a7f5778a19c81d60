package experiment

import (
	"time"

	"github.com/san-kum/esnlab/internal/analysis"
	"github.com/san-kum/esnlab/internal/dynamo"
)

type Report struct {
	Truth      *dynamo.Trajectory `json:"-"`
	Train      *dynamo.Trajectory `json:"-"`
	Validation *dynamo.Trajectory `json:"-"`
	Forecast   *dynamo.Trajectory `json:"-"`

	Seed          int64         `json:"seed"`
	Fingerprint   string        `json:"fingerprint"`
	RMSE          float64       `json:"rmse"`
	NRMSE         float64       `json:"nrmse"`
	ValidSteps    int           `json:"valid_steps"`
	ValidTime     float64       `json:"valid_time"`
	Lyapunov      float64       `json:"lyapunov"`
	LyapunovTimes float64       `json:"lyapunov_times"`
	SpectrumError float64       `json:"spectrum_error"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Score compares forecast with validation. dt converts steps into time and
// lambda, when positive, converts time into Lyapunov times.
func Score(truth, train, validation, forecast *dynamo.Trajectory, dt, lambda float64) *Report {
	steps := analysis.ValidTime(validation.States, forecast.States, analysis.DefaultValidThreshold)
	validTime := float64(steps) * dt
	return &Report{
		Truth:         truth,
		Train:         train,
		Validation:    validation,
		Forecast:      forecast,
		RMSE:          analysis.RMSE(validation.States, forecast.States),
		NRMSE:         analysis.NRMSE(validation.States, forecast.States),
		ValidSteps:    steps,
		ValidTime:     validTime,
		Lyapunov:      lambda,
		LyapunovTimes: analysis.LyapunovTimes(validTime, lambda),
		SpectrumError: analysis.SpectrumError(validation.Component(0), forecast.Component(0)),
	}
}

// Metrics flattens the scalar scores for storage and optimisation.
func (r *Report) Metrics() map[string]float64 {
	return map[string]float64{
		"rmse":           r.RMSE,
		"nrmse":          r.NRMSE,
		"valid_steps":    float64(r.ValidSteps),
		"valid_time":     r.ValidTime,
		"lyapunov":       r.Lyapunov,
		"lyapunov_times": r.LyapunovTimes,
		"spectrum_error": r.SpectrumError,
	}
}
