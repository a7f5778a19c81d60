package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Sub(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}
}

func TestNewTrajectory_Contiguous(t *testing.T) {
	tr := NewTrajectory(4, 3)
	if tr.Len() != 4 || tr.Dim() != 3 {
		t.Fatalf("got %dx%d, want 4x3", tr.Len(), tr.Dim())
	}
	if tr.Times != nil {
		t.Error("untimed trajectory should have nil Times")
	}

	// rows are capped so appending to one never bleeds into the next
	row := append(tr.States[0], 99)
	if tr.States[1][0] == 99 {
		t.Error("append to row 0 overwrote row 1")
	}
	_ = row
}

func TestTrajectory_Split(t *testing.T) {
	tr := NewTimedTrajectory(10, 1)
	for i := range tr.States {
		tr.States[i][0] = float64(i)
		tr.Times[i] = float64(i) * 0.1
	}

	train, val := tr.Split(0.5)
	if train.Len() != 5 || val.Len() != 5 {
		t.Fatalf("split sizes = %d/%d, want 5/5", train.Len(), val.Len())
	}
	if val.States[0][0] != 5 {
		t.Errorf("validation starts at %v, want 5", val.States[0][0])
	}
	if len(val.Times) != 5 || val.Times[0] != tr.Times[5] {
		t.Errorf("validation times not carried over: %v", val.Times)
	}

	// slices share storage with the parent
	val.States[0][0] = -1
	if tr.States[5][0] != -1 {
		t.Error("split should not copy states")
	}
}

func TestTrajectory_SplitAtBounds(t *testing.T) {
	tr := NewTrajectory(3, 2)

	head, tail := tr.SplitAt(-5)
	if head.Len() != 0 || tail.Len() != 3 {
		t.Errorf("SplitAt(-5) = %d/%d", head.Len(), tail.Len())
	}
	head, tail = tr.SplitAt(10)
	if head.Len() != 3 || tail.Len() != 0 {
		t.Errorf("SplitAt(10) = %d/%d", head.Len(), tail.Len())
	}
}

func TestTrajectory_CheckFinite(t *testing.T) {
	tr := NewTimedTrajectory(3, 2)
	if err := tr.CheckFinite(); err != nil {
		t.Fatalf("finite trajectory reported %v", err)
	}

	tr.States[2][1] = math.Inf(1)
	tr.Times[2] = 0.02
	err := tr.CheckFinite()
	if !errors.Is(err, ErrNumericDivergence) {
		t.Fatalf("expected ErrNumericDivergence, got %v", err)
	}
	var de *DivergenceError
	if !errors.As(err, &de) || de.Step != 2 {
		t.Errorf("expected divergence at step 2, got %+v", de)
	}
	if tr.IsFinite() {
		t.Error("IsFinite() = true for trajectory with Inf")
	}
}

func TestCheckStates(t *testing.T) {
	tests := []struct {
		name   string
		states []State
		ok     bool
	}{
		{"empty", nil, false},
		{"matching", []State{{1, 2, 3}, {4, 5, 6}}, true},
		{"short element", []State{{1, 2, 3}, {4, 5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStates("test", tt.states, 3)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestShapeError(t *testing.T) {
	err := &ShapeError{Op: "train", Index: 4, Want: 3, Got: 2}
	expected := "train: element 4 has dimension 2, want 3"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
