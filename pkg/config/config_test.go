package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values and band partition
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Carpet.LongCutoff != 800 {
		t.Errorf("Expected long cutoff 800, got %d", cfg.Carpet.LongCutoff)
	}
	if cfg.Carpet.MapMin != -2 || cfg.Carpet.MapMax != 2 {
		t.Errorf("Expected map range [-2, 2], got [%g, %g]", cfg.Carpet.MapMin, cfg.Carpet.MapMax)
	}
	if len(cfg.Bands) != 4 {
		t.Fatalf("Expected 4 default bands, got %d", len(cfg.Bands))
	}
	if cfg.Bands[0].Name != "cortical GM" || cfg.Bands[3].Name != "WM/CSF" {
		t.Errorf("Unexpected band order: %v", cfg.Bands)
	}
	if cfg.Spikes.Threshold != 6.0 {
		t.Errorf("Expected spike threshold 6.0, got %g", cfg.Spikes.Threshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Bands) != 4 {
		t.Errorf("Expected default bands, got %d", len(cfg.Bands))
	}
}

// TestConfigRoundtrip verifies save and reload preserve values
func TestConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Carpet.LongCutoff = 400
	cfg.Bands = []BandConfig{{Name: "everything", Min: 1, Max: 1000}}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Carpet.LongCutoff != 400 {
		t.Errorf("Expected long cutoff 400, got %d", loaded.Carpet.LongCutoff)
	}
	if len(loaded.Bands) != 1 || loaded.Bands[0].Name != "everything" {
		t.Errorf("Expected custom band list, got %v", loaded.Bands)
	}
}

// TestLoadConfigOverridesBands verifies YAML bands replace the defaults
func TestLoadConfigOverridesBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
bands:
  - name: gray
    min: 100
    max: 199
  - name: white
    min: 1
    max: 9
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Bands) != 2 {
		t.Fatalf("Expected 2 bands, got %d", len(cfg.Bands))
	}
	bands := cfg.TissueBands()
	if bands[0].Name != "gray" || bands[0].Lo != 100 || bands[0].Hi != 199 {
		t.Errorf("Unexpected first band: %+v", bands[0])
	}
}

// TestValidateRejectsOverlap verifies overlapping band ranges fail
func TestValidateRejectsOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bands = []BandConfig{
		{Name: "a", Min: 1, Max: 50},
		{Name: "b", Min: 40, Max: 60},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for overlapping bands, got nil")
	}

	cfg.Bands = []BandConfig{{Name: "a", Min: 10, Max: 5}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for inverted band range, got nil")
	}
}
