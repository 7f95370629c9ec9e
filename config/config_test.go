package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != DefaultDBName {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, DefaultDBName)
	}
	if cfg.Keys.Grab != "g" {
		t.Fatalf("Keys.Grab = %q, want %q", cfg.Keys.Grab, "g")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "db_path = \"custom.db\"\n\n[keys]\nquit = \"x\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != "custom.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "custom.db")
	}
	if cfg.Keys.Quit != "x" {
		t.Fatalf("Keys.Quit = %q, want %q", cfg.Keys.Quit, "x")
	}
	// Unset keys keep their defaults.
	if cfg.Keys.Add != "a" {
		t.Fatalf("Keys.Add = %q, want %q", cfg.Keys.Add, "a")
	}
}

func TestLoadOrCreateEmptyDBPathFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("db_path = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != DefaultDBName {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, DefaultDBName)
	}
}
