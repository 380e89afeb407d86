package train

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadDims(t *testing.T) {
	for _, dims := range []int{0, 1, 3, 100, 2048} {
		cfg := DefaultConfig()
		cfg.Dims = dims
		if err := cfg.Validate(); err == nil {
			t.Errorf("dims=%d passed validation", dims)
		}
	}
	for _, dims := range []int{2, 64, 128, 1024} {
		cfg := DefaultConfig()
		cfg.Dims = dims
		if err := cfg.Validate(); err != nil {
			t.Errorf("dims=%d rejected: %v", dims, err)
		}
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Window = 0 },
		func(c *Config) { c.Negatives = -1 },
		func(c *Config) { c.Alpha = 0 },
		func(c *Config) { c.Sample = -1 },
		func(c *Config) { c.BatchSentences = 0 },
		func(c *Config) { c.MaxPositions = 1 },
		func(c *Config) { c.MinCount = 0 },
	}
	for i, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d passed validation", i)
		}
	}
}

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"dims": 64, "window": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dims != 64 || cfg.Window != 3 {
		t.Errorf("overrides not applied: dims=%d window=%d", cfg.Dims, cfg.Window)
	}
	// Untouched fields keep their defaults.
	if cfg.Negatives != DefaultConfig().Negatives {
		t.Errorf("negatives = %d, want default %d", cfg.Negatives, DefaultConfig().Negatives)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"dims": 100}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for non-power-of-two dims")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
