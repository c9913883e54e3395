package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the documented defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pyramid.MaxLevels != 5 {
		t.Errorf("MaxLevels = %d, want 5", cfg.Pyramid.MaxLevels)
	}
	if cfg.Pyramid.MinSizeForNext != 512 {
		t.Errorf("MinSizeForNext = %d, want 512", cfg.Pyramid.MinSizeForNext)
	}
	if cfg.Pyramid.DownsamplePolicy != "decimate" {
		t.Errorf("DownsamplePolicy = %q, want decimate", cfg.Pyramid.DownsamplePolicy)
	}
	if cfg.Output.TileEdge != 512 {
		t.Errorf("TileEdge = %d, want 512", cfg.Output.TileEdge)
	}
	if cfg.Output.WriteBatchSize != 3 {
		t.Errorf("WriteBatchSize = %d, want 3", cfg.Output.WriteBatchSize)
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Output.TileEdge != 512 {
		t.Errorf("TileEdge = %d, want default 512", cfg.Output.TileEdge)
	}
}

// TestSaveLoadRoundTrip verifies configuration persistence.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")

	cfg := DefaultConfig()
	cfg.Pyramid.MaxLevels = 7
	cfg.Output.Compression = "lzw"
	cfg.Processing.NumWorkers = 4

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Pyramid.MaxLevels != 7 {
		t.Errorf("MaxLevels = %d, want 7", loaded.Pyramid.MaxLevels)
	}
	if loaded.Output.Compression != "lzw" {
		t.Errorf("Compression = %q, want lzw", loaded.Output.Compression)
	}
	if loaded.Processing.NumWorkers != 4 {
		t.Errorf("NumWorkers = %d, want 4", loaded.Processing.NumWorkers)
	}
}

// TestLoadConfigInvalidYAML verifies the parse error path.
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("pyramid: [not a mapping"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
