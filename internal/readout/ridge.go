// Package readout fits the linear map from reservoir states to targets.
package readout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// DefaultBeta is the Tikhonov coefficient used when none is configured.
const DefaultBeta = 1e-4

// Ridge solves W_out = U Rᵀ (R Rᵀ + beta I)⁻¹, where states R is D x T (one
// column per training step) and targets is T x k (one row per step). The
// returned matrix is k x D.
//
// The normal matrix is factorized with Cholesky. A failed factorization or a
// condition number above mat.ConditionTolerance reports ErrSingularSystem;
// that only happens for beta == 0 in practice.
func Ridge(states, targets mat.Matrix, beta float64) (*mat.Dense, error) {
	if beta < 0 || math.IsNaN(beta) {
		return nil, fmt.Errorf("readout: beta %g must be non-negative: %w", beta, dynamo.ErrParameterBounds)
	}
	d, t := states.Dims()
	tt, _ := targets.Dims()
	if t != tt {
		return nil, &dynamo.ShapeError{Op: "ridge", Index: -1, Want: t, Got: tt}
	}

	// G = R Rᵀ + beta I
	var g mat.SymDense
	g.SymOuterK(1, states)
	if beta != 0 {
		for i := 0; i < d; i++ {
			g.SetSym(i, i, g.At(i, i)+beta)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&g); !ok {
		return nil, fmt.Errorf("readout: normal matrix not positive definite: %w", dynamo.ErrSingularSystem)
	}
	if c := chol.Cond(); c > mat.ConditionTolerance || math.IsInf(c, 0) || math.IsNaN(c) {
		return nil, fmt.Errorf("readout: condition number %.3g: %w", c, dynamo.ErrSingularSystem)
	}

	// Solve G X = R U for X (D x k); W_out = Xᵀ since G is symmetric.
	var rhs mat.Dense
	rhs.Mul(states, targets)
	var x mat.Dense
	if err := chol.SolveTo(&x, &rhs); err != nil {
		return nil, fmt.Errorf("readout: %v: %w", err, dynamo.ErrSingularSystem)
	}

	return mat.DenseCopyOf(x.T()), nil
}

// StatesMatrix packs states column-wise into a D x T matrix.
func StatesMatrix(states []dynamo.State, dim int) (*mat.Dense, error) {
	if err := dynamo.CheckStates("states matrix", states, dim); err != nil {
		return nil, err
	}
	m := mat.NewDense(dim, len(states), nil)
	for j, s := range states {
		m.SetCol(j, s)
	}
	return m, nil
}

// TargetsMatrix packs states row-wise into a T x k matrix.
func TargetsMatrix(states []dynamo.State, dim int) (*mat.Dense, error) {
	if err := dynamo.CheckStates("targets matrix", states, dim); err != nil {
		return nil, err
	}
	m := mat.NewDense(len(states), dim, nil)
	for i, s := range states {
		m.SetRow(i, s)
	}
	return m, nil
}
