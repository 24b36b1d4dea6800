// Package config loads jobd settings from an optional YAML file with
// environment overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Host   string
	Port   string
	DBPath string

	SessionSecret string
	SessionTTL    time.Duration

	QuotaLimit  int
	QuotaWindow time.Duration

	PredictorBaseURL string
	PredictorTimeout time.Duration

	Workers       int
	QueueSize     int
	SweepInterval time.Duration
	MaxProcessing time.Duration
}

// fileConfig is the YAML shape. Durations are strings so the file reads
// naturally ("720h", "5m").
type fileConfig struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	Session struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
	} `yaml:"session"`

	Quota struct {
		Limit  int    `yaml:"limit"`
		Window string `yaml:"window"`
	} `yaml:"quota"`

	Predictor struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"predictor"`

	Processor struct {
		Workers       int    `yaml:"workers"`
		QueueSize     int    `yaml:"queue_size"`
		SweepInterval string `yaml:"sweep_interval"`
		MaxProcessing string `yaml:"max_processing"`
	} `yaml:"processor"`
}

func defaults() *Config {
	return &Config{
		Host:             "127.0.0.1",
		Port:             "8080",
		DBPath:           "jobd.db",
		SessionTTL:       24 * time.Hour,
		QuotaLimit:       100,
		QuotaWindow:      30 * 24 * time.Hour,
		PredictorBaseURL: "http://127.0.0.1:9090",
		PredictorTimeout: 5 * time.Minute,
		Workers:          2,
		QueueSize:        64,
		SweepInterval:    time.Minute,
		MaxProcessing:    10 * time.Minute,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// JOBD_* environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := applyFile(cfg, &fc); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if cfg.SessionSecret == "" {
		// An ephemeral secret keeps the service usable on first run, at the
		// cost of invalidating sessions on restart.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = hex.EncodeToString(b)
		log.Println("⚠️ No session secret configured, generated an ephemeral one")
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) error {
	setString(&cfg.Host, fc.Host)
	setString(&cfg.Port, fc.Port)
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.SessionSecret, fc.Session.Secret)
	setString(&cfg.PredictorBaseURL, fc.Predictor.BaseURL)

	if fc.Quota.Limit > 0 {
		cfg.QuotaLimit = fc.Quota.Limit
	}
	if fc.Processor.Workers > 0 {
		cfg.Workers = fc.Processor.Workers
	}
	if fc.Processor.QueueSize > 0 {
		cfg.QueueSize = fc.Processor.QueueSize
	}

	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{fc.Session.TTL, &cfg.SessionTTL, "session.ttl"},
		{fc.Quota.Window, &cfg.QuotaWindow, "quota.window"},
		{fc.Predictor.Timeout, &cfg.PredictorTimeout, "predictor.timeout"},
		{fc.Processor.SweepInterval, &cfg.SweepInterval, "processor.sweep_interval"},
		{fc.Processor.MaxProcessing, &cfg.MaxProcessing, "processor.max_processing"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Host, os.Getenv("JOBD_HOST"))
	setString(&cfg.Port, os.Getenv("JOBD_PORT"))
	setString(&cfg.DBPath, os.Getenv("JOBD_DB"))
	setString(&cfg.SessionSecret, os.Getenv("JOBD_SESSION_SECRET"))
	setString(&cfg.PredictorBaseURL, os.Getenv("JOBD_PREDICTOR_URL"))
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
