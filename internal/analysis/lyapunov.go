package analysis

import (
	"math"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent with the
// two-trajectory renormalisation method. A companion trajectory starts
// perturbation away from x0; after each step the separation d is measured,
// ln(d/d0) is accumulated and the companion is pulled back to distance d0
// along the separation direction.
//
//	λ ≈ Σ ln(d_i/d0) / (n·dt)
//
// A positive value indicates chaos.
func LyapunovExponent(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) float64 {
	if len(x0) == 0 || dt <= 0 || perturbation <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	t := 0.0
	sumLog := 0.0
	count := 0

	for t < duration {
		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		t += dt

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			break
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}

// LyapunovTimes converts a duration into multiples of 1/λ.
func LyapunovTimes(duration, lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	return duration * lambda
}
