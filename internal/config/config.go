package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment overrides. Each takes precedence over the matching config key.
const (
	EnvConfig      = "FARELOG_CONFIG"
	EnvFaresFile   = "FARELOG_FARES_FILE"
	EnvHistoryFile = "FARELOG_HISTORY_FILE"
	EnvBackend     = "FARELOG_BACKEND"
)

// Config holds all farelog configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Storage    StorageConfig    `toml:"storage"`
	Report     ReportConfig     `toml:"report"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig locates the fare table and the expense history.
type GeneralConfig struct {
	FaresFile   string `toml:"fares_file"`
	HistoryFile string `toml:"history_file"`
}

// StorageConfig selects the history backend.
type StorageConfig struct {
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// ReportConfig holds workbook formatting settings.
type ReportConfig struct {
	CurrencySymbol string `toml:"currency_symbol"`
	FileName       string `toml:"file_name"`
}

// ServerConfig holds the local API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration. File paths are relative
// to the working directory.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			FaresFile:   "fare_data.xlsx",
			HistoryFile: "employee_expense_history_with_total.csv",
		},
		Storage: StorageConfig{
			Backend: "csv",
		},
		Report: ReportConfig{
			CurrencySymbol: "$",
			FileName:       "total_expense_report.xlsx",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return filepath.Dir(p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "farelog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "farelog")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetFaresFile returns the fare table path from env var or config, in that order.
func GetFaresFile(cfg Config) string {
	if p := os.Getenv(EnvFaresFile); p != "" {
		return p
	}
	return cfg.General.FaresFile
}

// GetHistoryFile returns the history CSV path from env var or config.
func GetHistoryFile(cfg Config) string {
	if p := os.Getenv(EnvHistoryFile); p != "" {
		return p
	}
	return cfg.General.HistoryFile
}

// GetBackend returns the lower-cased storage backend name.
func GetBackend(cfg Config) string {
	if b := os.Getenv(EnvBackend); b != "" {
		return strings.ToLower(b)
	}
	return strings.ToLower(cfg.Storage.Backend)
}

// Resolve returns cfg with the environment overrides applied to its fields.
func Resolve(cfg Config) Config {
	cfg.General.FaresFile = GetFaresFile(cfg)
	cfg.General.HistoryFile = GetHistoryFile(cfg)
	cfg.Storage.Backend = GetBackend(cfg)
	return cfg
}

// StoragePath returns the file the configured backend writes to. The SQLite
// database defaults to the history path with a .db extension. Environment
// overrides are not consulted; pass a resolved config.
func StoragePath(cfg Config) string {
	history := cfg.General.HistoryFile
	if !strings.EqualFold(cfg.Storage.Backend, "sqlite") {
		return history
	}
	if cfg.Storage.SQLitePath != "" {
		return cfg.Storage.SQLitePath
	}
	return strings.TrimSuffix(history, filepath.Ext(history)) + ".db"
}
