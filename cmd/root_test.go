package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/farelog/internal/config"
	"github.com/theirongolddev/farelog/internal/store"
	"github.com/theirongolddev/farelog/internal/tui"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.toml"))
	t.Setenv(config.EnvFaresFile, "")
	t.Setenv(config.EnvHistoryFile, "")
	t.Setenv(config.EnvBackend, "")

	flagFares, flagHistory, flagBackend = "", "", ""
	t.Cleanup(func() { flagFares, flagHistory, flagBackend = "", "", "" })
	return dir
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)

	cfg := config.DefaultConfig()
	cfg.General.FaresFile = "from-config.csv"
	cfg.General.HistoryFile = "from-config-history.csv"
	if err := config.Save(cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.EnvFaresFile, "from-env.csv")
	t.Setenv(config.EnvHistoryFile, "from-env-history.csv")
	flagHistory = "from-flag-history.csv"

	got, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got.General.FaresFile != "from-env.csv" {
		t.Errorf("FaresFile = %q, want env value", got.General.FaresFile)
	}
	if got.General.HistoryFile != "from-flag-history.csv" {
		t.Errorf("HistoryFile = %q, want flag value", got.General.HistoryFile)
	}
}

func TestOpenSession_AddThroughForm(t *testing.T) {
	dir := isolate(t)

	fares := filepath.Join(dir, "fares.csv")
	if err := os.WriteFile(fares, []byte("Source,Destination,Price\nStationA,StationB,12.50\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	flagFares = fares
	flagHistory = filepath.Join(dir, "history.csv")
	flagBackend = store.BackendSQLite

	s, err := openSession()
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}

	v := tui.NewAddValues(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	v.Employee, v.Source, v.Destination = "alice", "StationA", "StationB"
	if missingDetails(v) {
		t.Fatal("missingDetails reported complete values as missing")
	}
	if _, err := v.Submit(s.svc); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.Close()

	if _, err := os.Stat(filepath.Join(dir, "history.db")); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}

	s, err = openSession()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.svc.Len() != 1 {
		t.Errorf("reloaded len = %d, want 1", s.svc.Len())
	}
}

func TestOpenSession_MissingFares(t *testing.T) {
	dir := isolate(t)
	flagFares = filepath.Join(dir, "nope.xlsx")

	if _, err := openSession(); err == nil {
		t.Fatal("expected error for missing fare table")
	}
}
