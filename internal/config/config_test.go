package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QuotaLimit != 100 {
		t.Errorf("quota limit = %d, want 100", cfg.QuotaLimit)
	}
	if cfg.QuotaWindow != 30*24*time.Hour {
		t.Errorf("quota window = %s, want 720h", cfg.QuotaWindow)
	}
	if len(cfg.SessionSecret) != 64 {
		t.Errorf("ephemeral session secret length = %d, want 64 hex chars", len(cfg.SessionSecret))
	}
	if cfg.SessionSecret == strings.Repeat("0", 64) {
		t.Error("ephemeral session secret is all zeroes")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobd.yaml")
	content := `
host: 0.0.0.0
port: "9000"
db_path: /tmp/test.db
session:
  secret: file-secret
  ttl: 2h
quota:
  limit: 50
  window: 168h
predictor:
  base_url: http://plots.internal:9090
  timeout: 90s
processor:
  workers: 4
  max_processing: 20m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != "9000" {
		t.Errorf("addr = %s:%s", cfg.Host, cfg.Port)
	}
	if cfg.QuotaLimit != 50 || cfg.QuotaWindow != 168*time.Hour {
		t.Errorf("quota = %d/%s", cfg.QuotaLimit, cfg.QuotaWindow)
	}
	if cfg.PredictorTimeout != 90*time.Second {
		t.Errorf("predictor timeout = %s, want 90s", cfg.PredictorTimeout)
	}
	if cfg.Workers != 4 || cfg.MaxProcessing != 20*time.Minute {
		t.Errorf("processor = %d workers, %s max", cfg.Workers, cfg.MaxProcessing)
	}
	if cfg.SessionSecret != "file-secret" {
		t.Errorf("session secret = %q", cfg.SessionSecret)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobd.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("JOBD_PORT", "7777")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("port = %s, want env override 7777", cfg.Port)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobd.yaml")
	if err := os.WriteFile(path, []byte("quota:\n  window: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid duration should fail")
	}
}
