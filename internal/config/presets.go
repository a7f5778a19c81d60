package config

import "sort"

type Preset struct {
	Description string
	Build       func() *Config
}

var Presets = map[string]Preset{
	"classic": {
		Description: "Lorenz (10, 28, 8/3), 10k RK4 steps, 300-unit reservoir",
		Build:       DefaultConfig,
	},
	"quick": {
		Description: "smaller reservoir and shorter trajectory for fast iteration",
		Build: func() *Config {
			cfg := DefaultConfig()
			cfg.Steps = 4000
			cfg.Reservoir.Dim = 100
			cfg.Reservoir.Density = 0.1
			return cfg
		},
	},
	"euler": {
		Description: "classic setup with forward-Euler ground truth",
		Build: func() *Config {
			cfg := DefaultConfig()
			cfg.Integrator = "euler"
			return cfg
		},
	},
	"feedforward": {
		Description: "recurrent matrix zeroed, reservoir reduced to a random projection",
		Build: func() *Config {
			cfg := DefaultConfig()
			cfg.Reservoir.DisableRecurrence = true
			return cfg
		},
	},
	"sparse": {
		Description: "classic setup with 1% edge density",
		Build: func() *Config {
			cfg := DefaultConfig()
			cfg.Reservoir.Density = 0.01
			return cfg
		},
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
