package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/esnlab/internal/config"
)

var tunables = map[string]func(*config.Config, float64){
	"rho":         func(c *config.Config, v float64) { c.Reservoir.Rho = v },
	"input_scale": func(c *config.Config, v float64) { c.Reservoir.InputScale = v },
	"density":     func(c *config.Config, v float64) { c.Reservoir.Density = v },
	"ridge_beta":  func(c *config.Config, v float64) { c.Reservoir.RidgeBeta = v },
	"dim":         func(c *config.Config, v float64) { c.Reservoir.Dim = int(math.Round(v)) },
}

// TunableParams lists the reservoir parameters WithParams accepts.
func TunableParams() []string {
	names := make([]string, 0, len(tunables))
	for name := range tunables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithParams returns a copy of cfg with the named reservoir parameters
// overridden. The result is validated.
func WithParams(cfg *config.Config, params map[string]float64) (*config.Config, error) {
	out := cfg.Clone()
	for name, v := range params {
		set, ok := tunables[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q (want one of %v)", name, TunableParams())
		}
		set(out, v)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
