package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "CLASSIFIER_BACKEND", "DETECT_THRESHOLD", "TEXT_THRESHOLD",
		"MIN_WORDS", "MAX_WORDS", "WORKER_COUNT", "JOB_TTL", "PDF_EXTRACT_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.ClassifierBackend != "remote" {
		t.Errorf("expected remote backend, got %q", cfg.ClassifierBackend)
	}
	if cfg.DetectThreshold != 0.6 || cfg.TextThreshold != 0.6 {
		t.Errorf("expected thresholds 0.6/0.6, got %v/%v", cfg.DetectThreshold, cfg.TextThreshold)
	}
	if cfg.MinWords != 40 || cfg.MaxWords != 250 {
		t.Errorf("expected bounds 40/250, got %d/%d", cfg.MinWords, cfg.MaxWords)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %v", cfg.JobTTL)
	}
	if cfg.PDFTimeout != 15*time.Second {
		t.Errorf("expected 15s pdf timeout, got %v", cfg.PDFTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLASSIFIER_BACKEND", "Claude")
	t.Setenv("DETECT_THRESHOLD", "0.75")
	t.Setenv("MAX_WORDS", "120")
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("CLASSIFIER_TIMEOUT", "5s")
	t.Setenv("PDF_EXTRACT_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.ClassifierBackend != "claude" {
		t.Errorf("expected lowercased backend, got %q", cfg.ClassifierBackend)
	}
	if cfg.DetectThreshold != 0.75 {
		t.Errorf("expected 0.75, got %v", cfg.DetectThreshold)
	}
	if cfg.MaxWords != 120 {
		t.Errorf("expected 120, got %d", cfg.MaxWords)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.ClassifierTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.ClassifierTimeout)
	}
	if cfg.PDFTimeout != 2*time.Second {
		t.Errorf("expected 2s pdf timeout, got %v", cfg.PDFTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		ClassifierBackend: "remote",
		ClassifierURL:     "http://localhost:9000/score",
		DetectThreshold:   0.6,
		TextThreshold:     0.6,
		MinWords:          40,
		MaxWords:          250,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.ClassifierURL = "" }, "CLASSIFIER_URL"},
		{"claude without key", func(c *Config) { c.ClassifierBackend = "claude" }, "ANTHROPIC_API_KEY"},
		{"unknown backend", func(c *Config) { c.ClassifierBackend = "onnx" }, "CLASSIFIER_BACKEND"},
		{"threshold high", func(c *Config) { c.DetectThreshold = 1.2 }, "DETECT_THRESHOLD"},
		{"text threshold low", func(c *Config) { c.TextThreshold = -0.1 }, "TEXT_THRESHOLD"},
		{"inverted bounds", func(c *Config) { c.MinWords = 300 }, "MIN_WORDS"},
		{"zero max", func(c *Config) { c.MaxWords = 0 }, "MIN_WORDS"},
	}
	for _, tt := range tests {
		cfg := valid
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error mentioning %s, got %v", tt.name, tt.want, err)
		}
	}
}
