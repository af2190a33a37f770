package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer auth on /api routes.
	APIKey string

	// Classifier backend
	ClassifierBackend      string
	ClassifierURL          string
	ClassifierAPIKey       string
	ClassifierSigmoidScale float64
	ClassifierTimeout      time.Duration

	// Claude judge backend
	AnthropicAPIKey string
	AnthropicModel  string

	// Scoring defaults
	DetectThreshold float64
	TextThreshold   float64
	MinWords        int
	MaxWords        int

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	MaxConcurrentDocs int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
	PDFTimeout           time.Duration

	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set are not overridden.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("AISCAN_API_KEY"),

		ClassifierBackend:      strings.ToLower(envOr("CLASSIFIER_BACKEND", "remote")),
		ClassifierURL:          os.Getenv("CLASSIFIER_URL"),
		ClassifierAPIKey:       os.Getenv("CLASSIFIER_API_KEY"),
		ClassifierSigmoidScale: envFloat("CLASSIFIER_SIGMOID_SCALE", 0),
		ClassifierTimeout:      envDuration("CLASSIFIER_TIMEOUT", 60*time.Second),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		DetectThreshold: envFloat("DETECT_THRESHOLD", 0.6),
		TextThreshold:   envFloat("TEXT_THRESHOLD", 0.6),
		MinWords:        envInt("MIN_WORDS", 40),
		MaxWords:        envInt("MAX_WORDS", 250),

		WorkerCount:       envInt("WORKER_COUNT", 4),
		MaxQueueSize:      envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentDocs: envInt("MAX_CONCURRENT_DOCS", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		PDFTimeout:           envDuration("PDF_EXTRACT_TIMEOUT", 15*time.Second),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentDocs <= 0 {
		cfg.MaxConcurrentDocs = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ClassifierTimeout <= 0 {
		cfg.ClassifierTimeout = 60 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = 15 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	var errs []error
	switch c.ClassifierBackend {
	case "remote":
		if c.ClassifierURL == "" {
			errs = append(errs, fmt.Errorf("CLASSIFIER_URL is required for the remote backend"))
		}
	case "claude":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("CLASSIFIER_BACKEND must be remote or claude, got %q", c.ClassifierBackend))
	}
	if c.DetectThreshold < 0 || c.DetectThreshold > 1 {
		errs = append(errs, fmt.Errorf("DETECT_THRESHOLD must be within [0,1], got %v", c.DetectThreshold))
	}
	if c.TextThreshold < 0 || c.TextThreshold > 1 {
		errs = append(errs, fmt.Errorf("TEXT_THRESHOLD must be within [0,1], got %v", c.TextThreshold))
	}
	if c.MinWords < 1 || c.MaxWords < 1 || c.MinWords > c.MaxWords {
		errs = append(errs, fmt.Errorf("MIN_WORDS/MAX_WORDS must satisfy 1 <= min <= max, got %d/%d", c.MinWords, c.MaxWords))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
