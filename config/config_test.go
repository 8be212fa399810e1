package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
  timeout: 5s
  rate_limit: 10
log:
  level: debug
  file: logs/churn.log
artifacts:
  model_path: models/trained_model.onnx
  onnx_runtime_path: models/libonnxruntime.so
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 9000 || config.Http.Timeout != 5*time.Second || config.Http.RateLimit != 10 {
		t.Fatalf("unexpected http config: %+v", config.Http)
	}
	if config.Log.Level != "debug" || config.Log.File != "logs/churn.log" {
		t.Fatalf("unexpected log config: %+v", config.Log)
	}
	if config.Artifacts.ModelPath != "models/trained_model.onnx" {
		t.Fatalf("unexpected model path: %s", config.Artifacts.ModelPath)
	}
	// untouched fields keep their defaults
	if config.Artifacts.ScalerPath != "scaler.json" {
		t.Fatalf("expected default scaler path, got %s", config.Artifacts.ScalerPath)
	}
	if config.Log.MaxBackups != 3 || !config.Log.Console {
		t.Fatalf("expected default rotation settings, got %+v", config.Log)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != Default().Http.Port {
		t.Fatalf("expected default port, got %d", config.Http.Port)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	config, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Artifacts.ModelPath != "trained_model.json" {
		t.Fatalf("expected default model path, got %s", config.Artifacts.ModelPath)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []string{
		"http:\n  port: 0\n",
		"http:\n  rate_limit: -1\n",
		"artifacts:\n  model_path: \"\"\n",
		"http: [not, a, map]\n",
	}
	for _, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}
