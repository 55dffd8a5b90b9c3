package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Errorf("metrics listen = %q, want :9090", cfg.Metrics.Listen)
	}
	if cfg.Tracing.ServiceName != "sdwire" || cfg.Tracing.SampleRatio != 1.0 {
		t.Errorf("tracing defaults = %+v", cfg.Tracing)
	}
}

func TestLoadFileOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
logging:
  level: debug
  format: json
metrics:
  enabled: true
tracing:
  enabled: true
  sample_ratio: 0.25
scenario: testdata/topology.json
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":9090" {
		t.Errorf("metrics = %+v, want enabled with default listen", cfg.Metrics)
	}
	if cfg.Tracing.SampleRatio != 0.25 || cfg.Tracing.ServiceName != "sdwire" {
		t.Errorf("tracing = %+v", cfg.Tracing)
	}
	if cfg.ScenarioPath != "testdata/topology.json" {
		t.Errorf("scenario = %q", cfg.ScenarioPath)
	}
}

func TestLoadClampsSampleRatio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tracing:\n  sample_ratio: 3.0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracing.SampleRatio != 1.0 {
		t.Errorf("sample ratio = %v, want 1.0", cfg.Tracing.SampleRatio)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded, want error")
	}
}
