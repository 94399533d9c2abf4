package config

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Events == 0 {
		t.Error("events should default positive")
	}
	if cfg.DataDir == "" {
		t.Error("data dir should have a default")
	}
	if cfg.Replex.SwapInterval == 0 {
		t.Error("swap interval should default positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver.yaml")

	cfg := DefaultConfig()
	cfg.Events = 12345
	cfg.Replex.Temperatures = []float64{1.0, 2.0}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Events != 12345 {
		t.Errorf("expected 12345 events, got %d", loaded.Events)
	}
	if len(loaded.Replex.Temperatures) != 2 {
		t.Errorf("temperature ladder lost: %v", loaded.Replex.Temperatures)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("compress")
	if cfg == nil {
		t.Fatal("expected the compress preset")
	}
	if cfg.Compression.GrowthRate <= 0 {
		t.Error("compress preset needs a growth rate")
	}

	// Presets return copies.
	cfg.Events = 1
	if GetPreset("compress").Events == 1 {
		t.Error("mutating a preset copy leaked into the registry")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for an unknown preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	sort.Strings(names)
	found := sort.SearchStrings(names, "replex")
	if found == len(names) || names[found] != "replex" {
		t.Error("expected a replex preset")
	}
}
