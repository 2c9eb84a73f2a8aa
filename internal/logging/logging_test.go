package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("quiet")
	logger.Warn("loud", "component", "test")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "component=test") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestSetupWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "carewatch.log")
	logger, closeFn := Setup(Options{Level: "info", File: path})
	logger.Info("sos alert created", "id", "a1")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "sos alert created") {
		t.Errorf("log file missing record: %q", data)
	}
}
