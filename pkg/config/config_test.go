package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Data.Dir != "data" {
		t.Errorf("expected default data dir %q, got %q", "data", cfg.Data.Dir)
	}
	if cfg.Data.TileURL == "" {
		t.Error("expected a default tile URL")
	}
	if cfg.Extract.Band != 55 {
		t.Errorf("expected default band 55, got %d", cfg.Extract.Band)
	}
	if cfg.Render.Colormap != "gray" {
		t.Errorf("expected default colormap gray, got %q", cfg.Render.Colormap)
	}
	if cfg.Render.HistogramBins != 50 {
		t.Errorf("expected 50 histogram bins, got %d", cfg.Render.HistogramBins)
	}
	if cfg.Render.StretchPercent != 2.0 {
		t.Errorf("expected 2%% stretch, got %g", cfg.Render.StretchPercent)
	}
}

// TestLoadConfigMissingFile verifies that a missing config file yields the
// defaults rather than an error
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Extract.Band != DefaultConfig().Extract.Band {
		t.Error("expected defaults for a missing file")
	}
}

// TestSaveAndLoadConfig verifies that a saved configuration round-trips
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "neonrefl.yaml")

	cfg := DefaultConfig()
	cfg.Extract.Band = 89
	cfg.Render.Colormap = "earth"
	cfg.Render.UseClim = true
	cfg.Render.ClimMax = 0.4
	cfg.Output.Verbose = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Extract.Band != 89 {
		t.Errorf("expected band 89, got %d", loaded.Extract.Band)
	}
	if loaded.Render.Colormap != "earth" {
		t.Errorf("expected colormap earth, got %q", loaded.Render.Colormap)
	}
	if !loaded.Render.UseClim || loaded.Render.ClimMax != 0.4 {
		t.Errorf("expected clim (0, 0.4), got %+v", loaded.Render)
	}
	if !loaded.Output.Verbose {
		t.Error("expected verbose output")
	}
}

// TestLoadConfigPartialFile verifies that fields absent from the file keep
// their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("extract:\n  band: 10\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Extract.Band != 10 {
		t.Errorf("expected band 10, got %d", cfg.Extract.Band)
	}
	if cfg.Render.HistogramBins != 50 {
		t.Errorf("expected default histogram bins to survive, got %d", cfg.Render.HistogramBins)
	}
}
