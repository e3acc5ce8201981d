package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "nope", "config.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.FaresFile != "fare_data.xlsx" {
		t.Errorf("FaresFile = %q", cfg.General.FaresFile)
	}
	if cfg.Report.FileName != "total_expense_report.xlsx" {
		t.Errorf("FileName = %q", cfg.Report.FileName)
	}
	if Exists() {
		t.Error("Exists() = true for missing file")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farelog", "config.toml")
	t.Setenv(EnvConfig, path)

	cfg := DefaultConfig()
	cfg.General.FaresFile = "/data/fares.csv"
	cfg.Storage.Backend = "sqlite"
	cfg.Report.CurrencySymbol = "€"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestXDGPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigPath(); got != filepath.Join("/tmp/xdg", "farelog", "config.toml") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvFaresFile, "other.csv")
	t.Setenv(EnvHistoryFile, "/var/hist.csv")
	t.Setenv(EnvBackend, "SQLite")

	if got := GetFaresFile(cfg); got != "other.csv" {
		t.Errorf("GetFaresFile = %q", got)
	}
	if got := GetBackend(cfg); got != "sqlite" {
		t.Errorf("GetBackend = %q", got)
	}

	resolved := Resolve(cfg)
	if resolved.General.HistoryFile != "/var/hist.csv" || resolved.Storage.Backend != "sqlite" {
		t.Fatalf("Resolve = %+v", resolved.General)
	}
	if got := StoragePath(resolved); got != "/var/hist.db" {
		t.Errorf("StoragePath = %q, want /var/hist.db", got)
	}

	resolved.Storage.SQLitePath = "/x/y.sqlite"
	if got := StoragePath(resolved); got != "/x/y.sqlite" {
		t.Errorf("StoragePath = %q, want explicit sqlite_path", got)
	}
}

func TestStoragePath_CSV(t *testing.T) {
	cfg := DefaultConfig()
	if got := StoragePath(cfg); got != cfg.General.HistoryFile {
		t.Errorf("StoragePath = %q, want history file", got)
	}
}
