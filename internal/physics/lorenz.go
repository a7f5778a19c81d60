package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// LorenzParams holds the three Lorenz coefficients.
type LorenzParams struct {
	Sigma float64 `yaml:"sigma" json:"sigma"`
	Rho   float64 `yaml:"rho" json:"rho"`
	Beta  float64 `yaml:"beta" json:"beta"`
}

// DefaultLorenzParams returns the classic chaotic setting (10, 28, 8/3).
func DefaultLorenzParams() LorenzParams {
	return LorenzParams{Sigma: 10.0, Rho: 28.0, Beta: 8.0 / 3.0}
}

// LorenzDerivative evaluates the Lorenz right-hand side at (x, y, z).
func LorenzDerivative(x, y, z, sigma, rho, beta float64) (dx, dy, dz float64) {
	return sigma * (y - x), x*(rho-z) - y, x*y - beta*z
}

type Lorenz struct{ p LorenzParams }

func NewLorenz() *Lorenz                     { return &Lorenz{DefaultLorenzParams()} }
func NewLorenzWith(p LorenzParams) *Lorenz   { return &Lorenz{p} }
func (l *Lorenz) StateDim() int              { return 3 }
func (l *Lorenz) Params() LorenzParams       { return l.p }
func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(s dynamo.State, _ float64) dynamo.State {
	dx, dy, dz := LorenzDerivative(s[0], s[1], s[2], l.p.Sigma, l.p.Rho, l.p.Beta)
	return dynamo.State{dx, dy, dz}
}

// FixedPoints returns the origin and, for rho > 1, the two symmetric
// equilibria C+ and C-.
func (l *Lorenz) FixedPoints() []dynamo.State {
	points := []dynamo.State{{0, 0, 0}}
	if l.p.Rho <= 1 {
		return points
	}
	c := math.Sqrt(l.p.Beta * (l.p.Rho - 1))
	return append(points,
		dynamo.State{c, c, l.p.Rho - 1},
		dynamo.State{-c, -c, l.p.Rho - 1},
	)
}

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.p.Sigma, "rho": l.p.Rho, "beta": l.p.Beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.p.Sigma = v
	case "rho":
		l.p.Rho = v
	case "beta":
		l.p.Beta = v
	default:
		return fmt.Errorf("lorenz: unknown parameter %q: %w", n, dynamo.ErrParameterBounds)
	}
	return nil
}
