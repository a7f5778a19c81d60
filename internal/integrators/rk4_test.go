package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/physics"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) StateDim() int { return 2 }

func TestRK4Accuracy(t *testing.T) {
	sys := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerStep(t *testing.T) {
	sys := physics.NewLorenz()
	x := dynamo.State{1, 1, 1}
	dt := 0.01

	got := NewEuler().Step(sys, x, 0, dt)
	dx, dy, dz := physics.LorenzDerivative(1, 1, 1, 10, 28, 8.0/3.0)
	want := dynamo.State{1 + dx*dt, 1 + dy*dt, 1 + dz*dt}

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("component %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if x[0] != 1 || x[1] != 1 || x[2] != 1 {
		t.Errorf("Step mutated its input: %v", x)
	}
}

// Near the stable equilibrium C+ (rho=10) both methods converge, but RK4's
// error against a fine-step reference must be far smaller.
func TestRK4BeatsEulerNearFixedPoint(t *testing.T) {
	params := physics.LorenzParams{Sigma: 10, Rho: 10, Beta: 8.0 / 3.0}
	sys := physics.NewLorenzWith(params)
	cPlus := sys.FixedPoints()[1]
	x0 := dynamo.State{cPlus[0] + 0.5, cPlus[1] - 0.5, cPlus[2] + 0.5}

	const (
		horizon = 1.0
		dt      = 0.01
		fineDt  = 1e-5
	)

	ref := Integrate(sys, NewRK4(), x0, fineDt, int(math.Round(horizon/fineDt)))
	euler := Integrate(sys, NewEuler(), x0, dt, int(math.Round(horizon/dt)))
	rk4 := Integrate(sys, NewRK4(), x0, dt, int(math.Round(horizon/dt)))

	want := ref.States[ref.Len()-1]
	eulerErr := euler.States[euler.Len()-1].Sub(want).Norm()
	rk4Err := rk4.States[rk4.Len()-1].Sub(want).Norm()

	t.Logf("euler error %.3e, rk4 error %.3e", eulerErr, rk4Err)
	if rk4Err >= eulerErr {
		t.Errorf("rk4 error %.3e not smaller than euler error %.3e", rk4Err, eulerErr)
	}
	if rk4Err > 1e-4 {
		t.Errorf("rk4 error %.3e larger than expected", rk4Err)
	}
}

func TestStepIntoMatchesStep(t *testing.T) {
	sys := physics.NewLorenz()
	x := dynamo.State{1, 2, 3}

	for _, name := range Names() {
		integ, err := New(Policy(name))
		if err != nil {
			t.Fatal(err)
		}
		want := integ.Step(sys, x, 0, 0.01)

		into := integ.(intoStepper)
		got := make(dynamo.State, 3)
		into.StepInto(got, sys, x, 0, 0.01)

		aliased := x.Clone()
		into.StepInto(aliased, sys, aliased, 0, 0.01)

		for i := range want {
			if got[i] != want[i] || aliased[i] != want[i] {
				t.Errorf("%s: component %d: StepInto = %g, aliased = %g, Step = %g",
					name, i, got[i], aliased[i], want[i])
			}
		}
	}
}
