// Package analysis scores forecasts against ground truth and characterises
// the underlying dynamics.
//
//   - [StepErrors], [RMSE], [NRMSE]: pointwise forecast error
//   - [ValidTime]: how long a forecast stays within a normalised error bound
//   - [LyapunovExponent]: largest Lyapunov exponent, used to express valid
//     time in Lyapunov times
//   - [PowerSpectrum], [SpectrumError]: long-horizon statistical agreement
//   - [NewPhasePortrait], [PhasePortraitToASCII]: 2D projections of
//     trajectories
//
// # Forecast horizon
//
//	steps := analysis.ValidTime(truth, forecast, 0.4)
//	lyap := analysis.LyapunovExponent(sys, integ, x0, dt, 100, 1e-8)
//	fmt.Println(float64(steps) * dt * lyap, "Lyapunov times")
package analysis
