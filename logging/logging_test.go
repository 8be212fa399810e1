package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churn.log")
	logger := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	logger.Debug("hidden")
	logger.Info("prediction served")
	_ = logger.Sync()

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(payload)
	if !strings.Contains(content, `"msg":"prediction served"`) {
		t.Fatalf("expected info line, got %q", content)
	}
	if strings.Contains(content, "hidden") {
		t.Fatalf("debug line should be filtered, got %q", content)
	}
}

func TestNewFallsBackToStderr(t *testing.T) {
	logger := New(Options{})
	if logger == nil {
		t.Fatal("expected logger")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) || logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected info level by default")
	}
}
