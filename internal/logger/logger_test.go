package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/theirongolddev/farelog/internal/config"
)

func TestNew_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "farelog.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("hidden")
	log.Info("expense added")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"expense added"`) {
		t.Errorf("log = %q, want json message", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LogConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_Defaults(t *testing.T) {
	log, err := New(config.LogConfig{Output: "discard"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled by default")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn disabled by default")
	}
}
