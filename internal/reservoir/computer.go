package reservoir

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/readout"
	"github.com/san-kum/esnlab/internal/topology"
)

// Computer is a single echo-state network. It is not safe for concurrent
// use; independent instances share nothing.
type Computer struct {
	cfg Config
	log *slog.Logger

	r    *mat.VecDense // D
	a    *mat.Dense    // D x D
	win  *mat.Dense    // D x dim
	wout *mat.Dense    // dim x D

	// scratch for advance
	pre *mat.VecDense
	in  *mat.VecDense
}

// New builds a reservoir from cfg. All randomness is drawn from a source
// seeded with cfg.Seed, in the order: recurrent mask, recurrent weights,
// input projection.
func New(cfg Config) (*Computer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder := cfg.Topology
	if builder == nil {
		builder = topology.NewBuilder()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	d, k := cfg.ReservoirDim, cfg.SystemDim

	a, err := builder.Build(d, cfg.Rho, cfg.Density, rng)
	if err != nil {
		return nil, fmt.Errorf("reservoir: %w", err)
	}
	if cfg.DisableRecurrence {
		a.Zero()
	}

	win := mat.NewDense(d, k, nil)
	win.Apply(func(_, _ int, _ float64) float64 {
		return cfg.InputScale * (2*rng.Float64() - 1)
	}, win)

	logger.Debug("reservoir constructed",
		"dim", d, "rho", cfg.Rho, "density", cfg.Density,
		"input_scale", cfg.InputScale, "recurrent", !cfg.DisableRecurrence)

	return &Computer{
		cfg:  cfg,
		log:  logger,
		r:    mat.NewVecDense(d, nil),
		a:    a,
		win:  win,
		wout: mat.NewDense(k, d, nil),
		pre:  mat.NewVecDense(d, nil),
		in:   mat.NewVecDense(k, nil),
	}, nil
}

func (c *Computer) Config() Config    { return c.cfg }
func (c *Computer) SystemDim() int    { return c.cfg.SystemDim }
func (c *Computer) ReservoirDim() int { return c.cfg.ReservoirDim }

// Advance absorbs u: r <- sigmoid(A r + W_in u). It returns a copy of the new
// state.
func (c *Computer) Advance(u dynamo.State) (dynamo.State, error) {
	if len(u) != c.cfg.SystemDim {
		return nil, &dynamo.ShapeError{Op: "advance", Index: -1, Want: c.cfg.SystemDim, Got: len(u)}
	}
	c.advance(u)
	return c.State(), nil
}

func (c *Computer) advance(u []float64) {
	for i, v := range u {
		c.in.SetVec(i, v)
	}
	c.pre.MulVec(c.win, c.in)
	if !c.cfg.DisableRecurrence {
		var ar mat.VecDense
		ar.MulVec(c.a, c.r)
		c.pre.AddVec(c.pre, &ar)
	}
	for i := 0; i < c.cfg.ReservoirDim; i++ {
		c.r.SetVec(i, sigmoid(c.pre.AtVec(i)))
	}
}

// Readout returns W_out r without touching the state.
func (c *Computer) Readout() dynamo.State {
	var v mat.VecDense
	v.MulVec(c.wout, c.r)
	out := make(dynamo.State, c.cfg.SystemDim)
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// Train drives the reservoir with states (teacher forcing), recording the
// reservoir state before each input, then fits W_out by ridge regression so
// that W_out r_i approximates states[i]. The reservoir keeps the state reached
// after the last input. Shapes are checked before any state is mutated.
func (c *Computer) Train(states []dynamo.State) error {
	if err := dynamo.CheckStates("train", states, c.cfg.SystemDim); err != nil {
		return err
	}
	start := time.Now()

	d := c.cfg.ReservoirDim
	collected := mat.NewDense(d, len(states), nil)
	for i, u := range states {
		collected.SetCol(i, c.r.RawVector().Data[:d])
		c.advance(u)
	}

	targets, err := readout.TargetsMatrix(states, c.cfg.SystemDim)
	if err != nil {
		return err
	}
	wout, err := readout.Ridge(collected, targets, c.cfg.RidgeBeta)
	if err != nil {
		return fmt.Errorf("reservoir: train: %w", err)
	}
	c.wout = wout

	c.log.Debug("readout trained", "steps", len(states), "beta", c.cfg.RidgeBeta,
		"elapsed", time.Since(start))
	return nil
}

// Predict runs the reservoir autonomously for steps steps, feeding each
// readout back as the next input. Predicting before training is allowed and
// yields zeros.
func (c *Computer) Predict(steps int) (*dynamo.Trajectory, error) {
	if steps < 0 {
		return nil, fmt.Errorf("reservoir: predict %d steps: %w", steps, dynamo.ErrParameterBounds)
	}
	tr := dynamo.NewTrajectory(steps, c.cfg.SystemDim)
	var v mat.VecDense
	for i := 0; i < steps; i++ {
		v.MulVec(c.wout, c.r)
		out := tr.States[i]
		for j := range out {
			out[j] = v.AtVec(j)
		}
		c.advance(out)
	}
	return tr, nil
}

// State returns a copy of the reservoir state r.
func (c *Computer) State() dynamo.State {
	return dynamo.State(c.r.RawVector().Data[:c.cfg.ReservoirDim]).Clone()
}

// ResetState sets r back to zero. Nothing calls it implicitly.
func (c *Computer) ResetState() {
	c.r.Zero()
}

// Adjacency returns a copy of the recurrent matrix A.
func (c *Computer) Adjacency() *mat.Dense { return mat.DenseCopyOf(c.a) }

// InputWeights returns a copy of W_in.
func (c *Computer) InputWeights() *mat.Dense { return mat.DenseCopyOf(c.win) }

// OutputWeights returns a copy of W_out.
func (c *Computer) OutputWeights() *mat.Dense { return mat.DenseCopyOf(c.wout) }
