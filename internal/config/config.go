package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/esnlab/internal/physics"
)

const (
	DefaultDt            = 0.01
	DefaultSteps         = 10000
	DefaultTrainFraction = 0.5
	DefaultSeed          = 42
	DefaultStorageDir    = "runs"
	DefaultCompression   = "zstd"
)

var (
	Integrators  = []string{"euler", "rk4"}
	Compressions = []string{"none", "zstd", "s2", "lz4"}
)

type Config struct {
	System        physics.LorenzParams `yaml:"system"`
	Integrator    string               `yaml:"integrator"`
	Dt            float64              `yaml:"dt"`
	Steps         int                  `yaml:"steps"`
	InitState     []float64            `yaml:"init_state"`
	TrainFraction float64              `yaml:"train_fraction"`
	Reservoir     ReservoirConfig      `yaml:"reservoir"`
	Seed          int64                `yaml:"seed"`
	Ensemble      int                  `yaml:"ensemble"`
	Storage       StorageConfig        `yaml:"storage"`
}

type ReservoirConfig struct {
	Dim               int     `yaml:"dim"`
	Rho               float64 `yaml:"rho"`
	InputScale        float64 `yaml:"input_scale"`
	Density           float64 `yaml:"density"`
	RidgeBeta         float64 `yaml:"ridge_beta"`
	DisableRecurrence bool    `yaml:"disable_recurrence"`
}

type StorageConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

func DefaultConfig() *Config {
	return &Config{
		System:        physics.DefaultLorenzParams(),
		Integrator:    "rk4",
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		InitState:     []float64{1, 1, 1},
		TrainFraction: DefaultTrainFraction,
		Reservoir: ReservoirConfig{
			Dim:        300,
			Rho:        1.1,
			InputScale: 0.1,
			Density:    0.05,
			RidgeBeta:  1e-4,
		},
		Seed:     DefaultSeed,
		Ensemble: 1,
		Storage: StorageConfig{
			Dir:         DefaultStorageDir,
			Compression: DefaultCompression,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.InitState = slices.Clone(c.InitState)
	return &out
}

func (c *Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	case c.Steps <= 0:
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	case len(c.InitState) != 3:
		return fmt.Errorf("init_state must have 3 components, got %d", len(c.InitState))
	case c.TrainFraction <= 0 || c.TrainFraction >= 1:
		return fmt.Errorf("train_fraction must be in (0, 1), got %g", c.TrainFraction)
	case !slices.Contains(Integrators, c.Integrator):
		return fmt.Errorf("unknown integrator %q (want one of %v)", c.Integrator, Integrators)
	case c.Reservoir.Dim <= 0:
		return fmt.Errorf("reservoir.dim must be positive, got %d", c.Reservoir.Dim)
	case c.Reservoir.Rho <= 0:
		return fmt.Errorf("reservoir.rho must be positive, got %g", c.Reservoir.Rho)
	case c.Reservoir.InputScale < 0:
		return fmt.Errorf("reservoir.input_scale must be non-negative, got %g", c.Reservoir.InputScale)
	case c.Reservoir.Density <= 0 || c.Reservoir.Density > 1:
		return fmt.Errorf("reservoir.density must be in (0, 1], got %g", c.Reservoir.Density)
	case c.Reservoir.RidgeBeta < 0:
		return fmt.Errorf("reservoir.ridge_beta must be non-negative, got %g", c.Reservoir.RidgeBeta)
	case c.Ensemble < 1:
		return fmt.Errorf("ensemble must be at least 1, got %d", c.Ensemble)
	case c.Storage.Compression != "" && !slices.Contains(Compressions, c.Storage.Compression):
		return fmt.Errorf("unknown compression %q (want one of %v)", c.Storage.Compression, Compressions)
	}
	return nil
}

// TrainSteps is the number of integrated states used for training.
func (c *Config) TrainSteps() int {
	return int(c.TrainFraction * float64(c.Steps+1))
}

// Fingerprint hashes everything that affects results. Storage settings are
// excluded.
func (c *Config) Fingerprint() uint64 {
	clone := c.Clone()
	clone.Storage = StorageConfig{}
	data, err := yaml.Marshal(clone)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

func (c *Config) FingerprintHex() string {
	return fmt.Sprintf("%016x", c.Fingerprint())
}
