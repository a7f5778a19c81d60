package integrators

import "github.com/san-kum/esnlab/internal/dynamo"

// Euler is the explicit first-order step x' = x + dt*f(x, t).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	out := make(dynamo.State, len(x))
	e.StepInto(out, sys, x, t, dt)
	return out
}

// StepInto writes the step from x into dst. dst may alias x.
func (e *Euler) StepInto(dst dynamo.State, sys dynamo.System, x dynamo.State, t, dt float64) {
	dx := sys.Derive(x, t)
	for i := range x {
		dst[i] = x[i] + dt*dx[i]
	}
}
