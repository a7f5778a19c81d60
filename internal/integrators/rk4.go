package integrators

import "github.com/san-kum/esnlab/internal/dynamo"

// RK4 is the classic four-stage Runge-Kutta step. It keeps stage buffers,
// so one instance must not be shared between goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	stage          dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.k1) == n {
		return
	}
	buf := make(dynamo.State, 5*n)
	r.k1, r.k2, r.k3, r.k4, r.stage = buf[:n:n], buf[n:2*n:2*n], buf[2*n:3*n:3*n], buf[3*n:4*n:4*n], buf[4*n:]
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	out := make(dynamo.State, len(x))
	r.StepInto(out, sys, x, t, dt)
	return out
}

// StepInto writes the step from x into dst. dst may alias x.
func (r *RK4) StepInto(dst dynamo.State, sys dynamo.System, x dynamo.State, t, dt float64) {
	n := len(x)
	r.grow(n)
	h := dt / 2

	copy(r.k1, sys.Derive(x, t))
	r.offset(x, r.k1, h)
	copy(r.k2, sys.Derive(r.stage, t+h))
	r.offset(x, r.k2, h)
	copy(r.k3, sys.Derive(r.stage, t+h))
	r.offset(x, r.k3, dt)
	copy(r.k4, sys.Derive(r.stage, t+dt))

	dt6 := dt / 6
	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}

// offset sets stage = x + h*k.
func (r *RK4) offset(x, k dynamo.State, h float64) {
	for i := range x {
		r.stage[i] = x[i] + h*k[i]
	}
}
