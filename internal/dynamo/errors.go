package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation, construction and training.
var (
	// ErrShapeMismatch indicates vectors or trajectories whose dimensions disagree.
	ErrShapeMismatch = errors.New("dynamo: shape mismatch")

	// ErrDegenerateConstruction indicates a recurrent matrix whose leading
	// eigenvalue is ~0, so it cannot be rescaled to a spectral radius.
	ErrDegenerateConstruction = errors.New("dynamo: degenerate construction (leading eigenvalue ~0)")

	// ErrSingularSystem indicates normal equations that are not invertible.
	ErrSingularSystem = errors.New("dynamo: singular system")

	// ErrNumericDivergence indicates a state containing NaN or Inf.
	ErrNumericDivergence = errors.New("dynamo: numeric divergence (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// ShapeError reports a dimension mismatch with context.
// Index is the offending element, or -1 when the whole input is at fault.
type ShapeError struct {
	Op    string
	Index int
	Want  int
	Got   int
}

func (e *ShapeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: element %d has dimension %d, want %d", e.Op, e.Index, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: got length %d, want %d", e.Op, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// DivergenceError wraps ErrNumericDivergence with the step where it was first seen.
type DivergenceError struct {
	Step  int
	Time  float64
	State State
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, ErrNumericDivergence.Error())
}

func (e *DivergenceError) Unwrap() error {
	return ErrNumericDivergence
}
