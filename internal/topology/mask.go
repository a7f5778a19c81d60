package topology

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// MaskGenerator produces a dim x dim 0/1 connectivity mask. Implementations
// must draw all randomness from rng so that a seed reproduces the mask.
type MaskGenerator interface {
	Mask(dim int, density float64, rng *rand.Rand) (*mat.Dense, error)
}

// ErdosRenyi includes each directed edge (i, j) independently with
// probability density. Edges are visited in row-major order.
type ErdosRenyi struct {
	AllowSelfLoops bool
}

func (g ErdosRenyi) Mask(dim int, density float64, rng *rand.Rand) (*mat.Dense, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("topology: dim %d: %w", dim, dynamo.ErrParameterBounds)
	}
	if density <= 0 || density > 1 {
		return nil, fmt.Errorf("topology: density %g outside (0, 1]: %w", density, dynamo.ErrParameterBounds)
	}
	m := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if i == j && !g.AllowSelfLoops {
				continue
			}
			if rng.Float64() < density {
				m.Set(i, j, 1)
			}
		}
	}
	return m, nil
}

// Edges counts the non-zero entries of m.
func Edges(m mat.Matrix) int {
	r, c := m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				n++
			}
		}
	}
	return n
}
