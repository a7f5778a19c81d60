package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous ODE right-hand side.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Trajectory is an ordered sequence of states. Times is optional; when
// present it has the same length as States.
type Trajectory struct {
	States []State
	Times  []float64
}

// NewTrajectory allocates n states of dimension dim in one contiguous block.
// Times is left nil.
func NewTrajectory(n, dim int) *Trajectory {
	data := make([]float64, n*dim)
	states := make([]State, n)
	for i := range states {
		states[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return &Trajectory{States: states}
}

// NewTimedTrajectory is NewTrajectory with a zeroed Times slice.
func NewTimedTrajectory(n, dim int) *Trajectory {
	tr := NewTrajectory(n, dim)
	tr.Times = make([]float64, n)
	return tr
}

func (tr *Trajectory) Len() int {
	if tr == nil {
		return 0
	}
	return len(tr.States)
}

// Dim returns the dimension of the first state, or 0 for an empty trajectory.
func (tr *Trajectory) Dim() int {
	if tr.Len() == 0 {
		return 0
	}
	return len(tr.States[0])
}

// SplitAt returns the prefix [0, i) and the suffix [i, n). Both share the
// receiver's storage.
func (tr *Trajectory) SplitAt(i int) (*Trajectory, *Trajectory) {
	n := tr.Len()
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	head := &Trajectory{States: tr.States[:i:i]}
	tail := &Trajectory{States: tr.States[i:]}
	if len(tr.Times) == n {
		head.Times = tr.Times[:i:i]
		tail.Times = tr.Times[i:]
	}
	return head, tail
}

// Split cuts the trajectory at floor(fraction*len).
func (tr *Trajectory) Split(fraction float64) (*Trajectory, *Trajectory) {
	return tr.SplitAt(int(fraction * float64(tr.Len())))
}

// FirstNonFinite returns the index of the first state containing NaN or Inf,
// or -1 when every state is finite.
func (tr *Trajectory) FirstNonFinite() int {
	for i, s := range tr.States {
		if !s.IsValid() {
			return i
		}
	}
	return -1
}

func (tr *Trajectory) IsFinite() bool {
	return tr.FirstNonFinite() < 0
}

// CheckFinite returns a *DivergenceError for the first non-finite state.
func (tr *Trajectory) CheckFinite() error {
	i := tr.FirstNonFinite()
	if i < 0 {
		return nil
	}
	t := 0.0
	if i < len(tr.Times) {
		t = tr.Times[i]
	}
	return &DivergenceError{Step: i, Time: t, State: tr.States[i].Clone()}
}

// Component copies component k of every state into a new slice.
func (tr *Trajectory) Component(k int) []float64 {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		if k < len(s) {
			out[i] = s[k]
		}
	}
	return out
}

// CheckDim verifies that every state has dimension dim.
func (tr *Trajectory) CheckDim(op string, dim int) error {
	return CheckStates(op, tr.States, dim)
}

// CheckStates verifies that states is non-empty and every element has dimension dim.
func CheckStates(op string, states []State, dim int) error {
	if len(states) == 0 {
		return &ShapeError{Op: op, Index: -1, Want: 1, Got: 0}
	}
	for i, s := range states {
		if len(s) != dim {
			return &ShapeError{Op: op, Index: i, Want: dim, Got: len(s)}
		}
	}
	return nil
}
