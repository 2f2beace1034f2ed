package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.DefaultTarget != "" || cfg.DefaultOutputDir != "" {
		t.Fatalf("expected zero config, got: %+v", cfg)
	}
}

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	intentcDir := filepath.Join(dir, ".intentc")
	if err := os.MkdirAll(intentcDir, 0755); err != nil {
		t.Fatal(err)
	}

	data := `{
  "default_target": "python",
  "default_output_dir": "build"
}`
	if err := os.WriteFile(filepath.Join(intentcDir, "config.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultTarget != "python" {
		t.Errorf("default_target = %q, want %q", cfg.DefaultTarget, "python")
	}
	if cfg.DefaultOutputDir != "build" {
		t.Errorf("default_output_dir = %q, want %q", cfg.DefaultOutputDir, "build")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	intentcDir := filepath.Join(dir, ".intentc")
	if err := os.MkdirAll(intentcDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(intentcDir, "config.json"), []byte("{bad json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		DefaultTarget:    "python",
		DefaultOutputDir: "generated",
	}

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("save error: %v", err)
	}

	path := filepath.Join(dir, ".intentc", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.DefaultTarget != "python" {
		t.Errorf("default_target = %q, want %q", loaded.DefaultTarget, "python")
	}
	if loaded.DefaultOutputDir != "generated" {
		t.Errorf("default_output_dir = %q, want %q", loaded.DefaultOutputDir, "generated")
	}
}
