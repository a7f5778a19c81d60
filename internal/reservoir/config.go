package reservoir

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/readout"
	"github.com/san-kum/esnlab/internal/topology"
)

// Config holds the construction parameters of a Computer. Density is the
// edge probability of the recurrent graph; InputScale bounds the entries of
// the input projection. The two are independent.
type Config struct {
	SystemDim    int
	ReservoirDim int
	Rho          float64
	InputScale   float64
	Density      float64
	RidgeBeta    float64
	Seed         int64

	// DisableRecurrence zeroes the recurrent matrix after it is built, which
	// turns the reservoir into a feed-forward random projection. The random
	// draws are unchanged so W_in matches the recurrent variant.
	DisableRecurrence bool

	Logger   *slog.Logger
	Topology *topology.Builder
}

// DefaultConfig returns the classic Lorenz setup.
func DefaultConfig() Config {
	return Config{
		SystemDim:    3,
		ReservoirDim: 300,
		Rho:          1.1,
		InputScale:   0.1,
		Density:      0.05,
		RidgeBeta:    readout.DefaultBeta,
		Seed:         42,
	}
}

func (c Config) validate() error {
	if c.SystemDim <= 0 {
		return fmt.Errorf("reservoir: system dim %d: %w", c.SystemDim, dynamo.ErrParameterBounds)
	}
	if c.ReservoirDim <= 0 {
		return fmt.Errorf("reservoir: reservoir dim %d: %w", c.ReservoirDim, dynamo.ErrParameterBounds)
	}
	if c.InputScale < 0 || math.IsNaN(c.InputScale) || math.IsInf(c.InputScale, 0) {
		return fmt.Errorf("reservoir: input scale %g: %w", c.InputScale, dynamo.ErrParameterBounds)
	}
	if c.RidgeBeta < 0 || math.IsNaN(c.RidgeBeta) {
		return fmt.Errorf("reservoir: ridge beta %g: %w", c.RidgeBeta, dynamo.ErrParameterBounds)
	}
	return nil
}
