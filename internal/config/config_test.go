package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Reservoir.Dim != 300 || cfg.Reservoir.Rho != 1.1 {
		t.Errorf("unexpected reservoir defaults: %+v", cfg.Reservoir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"negative steps", func(c *Config) { c.Steps = -1 }, "steps"},
		{"short init state", func(c *Config) { c.InitState = []float64{1, 1} }, "init_state"},
		{"fraction one", func(c *Config) { c.TrainFraction = 1 }, "train_fraction"},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }, "integrator"},
		{"zero dim", func(c *Config) { c.Reservoir.Dim = 0 }, "reservoir.dim"},
		{"zero rho", func(c *Config) { c.Reservoir.Rho = 0 }, "reservoir.rho"},
		{"negative input scale", func(c *Config) { c.Reservoir.InputScale = -1 }, "input_scale"},
		{"density above one", func(c *Config) { c.Reservoir.Density = 2 }, "density"},
		{"negative beta", func(c *Config) { c.Reservoir.RidgeBeta = -1 }, "ridge_beta"},
		{"no ensemble", func(c *Config) { c.Ensemble = 0 }, "ensemble"},
		{"bad codec", func(c *Config) { c.Storage.Compression = "brotli" }, "compression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	data := "integrator: euler\nreservoir:\n  dim: 64\n  disable_recurrence: true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Integrator != "euler" || cfg.Reservoir.Dim != 64 || !cfg.Reservoir.DisableRecurrence {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Reservoir.Rho != 1.1 || cfg.Steps != DefaultSteps {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dt: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative dt")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("quick")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Fingerprint() != cfg.Fingerprint() {
		t.Error("fingerprint changed across save/load")
	}
}

func TestFingerprint(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical configs should share a fingerprint")
	}

	b.Storage.Dir = "/elsewhere"
	b.Storage.Compression = "lz4"
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("storage settings should not affect the fingerprint")
	}

	b.Reservoir.Rho = 1.2
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("reservoir rho should affect the fingerprint")
	}
	if len(a.FingerprintHex()) != 16 {
		t.Errorf("unexpected hex fingerprint %q", a.FingerprintHex())
	}
}

func TestClone(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.InitState[0] = 99
	if a.InitState[0] == 99 {
		t.Error("Clone shares InitState")
	}
}

func TestTrainSteps(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.TrainSteps(); got != 5000 {
		t.Errorf("TrainSteps = %d, want 5000", got)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("feedforward")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.Reservoir.DisableRecurrence {
		t.Error("feedforward preset should disable recurrence")
	}

	cfg.Reservoir.Dim = 1
	if GetPreset("feedforward").Reservoir.Dim == 1 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
