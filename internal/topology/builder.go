package topology

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// degenerateTol is the relative threshold below which a spectral radius is
// treated as zero.
const degenerateTol = 1e-10

// Builder assembles adjacency matrices from a mask generator.
type Builder struct {
	Masks MaskGenerator
}

// NewBuilder returns a Builder using an Erdos-Renyi mask without self-loops.
func NewBuilder() *Builder {
	return &Builder{Masks: ErdosRenyi{}}
}

// Build draws a sparse mask, fills it with weights uniform in [-1, 1] and
// rescales the result so its spectral radius equals rho. A matrix whose
// radius is numerically zero (for example an empty or nilpotent mask)
// cannot be rescaled and yields ErrDegenerateConstruction.
func (b *Builder) Build(dim int, rho, density float64, rng *rand.Rand) (*mat.Dense, error) {
	if rho <= 0 || math.IsNaN(rho) || math.IsInf(rho, 0) {
		return nil, fmt.Errorf("topology: rho %g must be positive: %w", rho, dynamo.ErrParameterBounds)
	}
	masks := b.Masks
	if masks == nil {
		masks = ErdosRenyi{}
	}
	mask, err := masks.Mask(dim, density, rng)
	if err != nil {
		return nil, err
	}

	weights := mat.NewDense(dim, dim, nil)
	weights.Apply(func(_, _ int, _ float64) float64 {
		return 2*rng.Float64() - 1
	}, weights)

	a := mat.NewDense(dim, dim, nil)
	a.MulElem(mask, weights)

	radius, err := SpectralRadius(a)
	if err != nil {
		return nil, err
	}
	norm := mat.Norm(a, 2)
	if radius <= degenerateTol*math.Max(1, norm) {
		return nil, fmt.Errorf("topology: spectral radius %g with %d edges: %w",
			radius, Edges(mask), dynamo.ErrDegenerateConstruction)
	}

	a.Scale(rho/radius, a)
	return a, nil
}

// Build is shorthand for NewBuilder().Build.
func Build(dim int, rho, density float64, rng *rand.Rand) (*mat.Dense, error) {
	return NewBuilder().Build(dim, rho, density, rng)
}

// SpectralRadius returns the largest eigenvalue modulus of the square matrix a.
func SpectralRadius(a mat.Matrix) (float64, error) {
	r, c := a.Dims()
	if r != c {
		return 0, &dynamo.ShapeError{Op: "spectral radius", Index: -1, Want: r, Got: c}
	}
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return 0, fmt.Errorf("topology: eigendecomposition did not converge: %w", dynamo.ErrDegenerateConstruction)
	}
	radius := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > radius {
			radius = m
		}
	}
	return radius, nil
}
