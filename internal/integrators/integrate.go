package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/physics"
)

// Policy names a step rule.
type Policy string

const (
	PolicyEuler Policy = "euler"
	PolicyRK4   Policy = "rk4"
)

var policies = map[Policy]func() dynamo.Integrator{
	PolicyEuler: func() dynamo.Integrator { return NewEuler() },
	PolicyRK4:   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator for the named policy.
func New(p Policy) (dynamo.Integrator, error) {
	fn, ok := policies[p]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", p)
	}
	return fn(), nil
}

// Names lists the registered policies in sorted order.
func Names() []string {
	names := make([]string, 0, len(policies))
	for p := range policies {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// intoStepper is implemented by integrators that can write a step into a
// caller-owned slice.
type intoStepper interface {
	StepInto(dst dynamo.State, sys dynamo.System, x dynamo.State, t, dt float64)
}

// Integrate applies integ to x0 steps times and returns steps+1 timed states,
// the first being a copy of x0. Non-finite values are propagated, not
// reported; use Trajectory.CheckFinite to detect divergence.
func Integrate(sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt float64, steps int) *dynamo.Trajectory {
	if steps < 0 {
		steps = 0
	}
	tr := dynamo.NewTimedTrajectory(steps+1, len(x0))
	copy(tr.States[0], x0)

	into, direct := integ.(intoStepper)
	x := tr.States[0]
	t := 0.0
	for i := 1; i <= steps; i++ {
		if direct {
			into.StepInto(tr.States[i], sys, x, t, dt)
		} else {
			copy(tr.States[i], integ.Step(sys, x, t, dt))
		}
		t += dt
		tr.Times[i] = t
		x = tr.States[i]
	}
	return tr
}

// IntegrateLorenz integrates the Lorenz system from x0 with the given policy.
func IntegrateLorenz(x0 dynamo.State, dt float64, params physics.LorenzParams, steps int, policy Policy) (*dynamo.Trajectory, error) {
	if len(x0) != 3 {
		return nil, &dynamo.ShapeError{Op: "integrate", Index: -1, Want: 3, Got: len(x0)}
	}
	integ, err := New(policy)
	if err != nil {
		return nil, err
	}
	return Integrate(physics.NewLorenzWith(params), integ, x0, dt, steps), nil
}
