package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/aiscan/internal/metrics"
)

const (
	BackendRemote = "remote"
	BackendClaude = "claude"
)

// Config selects and configures a classifier backend.
type Config struct {
	Backend string

	// Remote model endpoint
	URL          string
	APIKey       string
	SigmoidScale float64

	// Claude judge
	AnthropicAPIKey string
	AnthropicModel  string

	Timeout     time.Duration
	StatsWindow time.Duration
}

type backend interface {
	Classify(ctx context.Context, texts []string) ([]float64, error)
	Close()
}

// Client runs one backend with retries on transient failures and records
// every batch call in Stats and the metrics registry. It is safe for
// concurrent use.
type Client struct {
	backend backend
	name    string
	stats   *Stats
	log     *slog.Logger

	// backoff is swapped out in tests.
	backoff func(attempt int) time.Duration
}

// New builds the configured backend.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	var b backend
	switch cfg.Backend {
	case BackendRemote, "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote classifier requires a URL")
		}
		b = NewRemote(cfg.URL, cfg.APIKey, cfg.SigmoidScale, cfg.Timeout)
		cfg.Backend = BackendRemote
	case BackendClaude:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("claude classifier requires an API key")
		}
		b = NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
	return newClient(b, cfg.Backend, NewStats(cfg.StatsWindow), log), nil
}

func newClient(b backend, name string, stats *Stats, log *slog.Logger) *Client {
	return &Client{
		backend: b,
		name:    name,
		stats:   stats,
		log:     log.With("backend", name),
		backoff: Backoff,
	}
}

// Classify scores a batch, retrying RetryableError up to MaxRetries times.
func (c *Client) Classify(ctx context.Context, texts []string) ([]float64, error) {
	var probs []float64
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		start := time.Now()
		probs, lastErr = c.backend.Classify(ctx, texts)
		elapsed := time.Since(start)
		c.stats.Observe(elapsed, len(texts), lastErr)

		if lastErr == nil {
			metrics.ObserveClassifier(c.name, "ok", elapsed)
			return probs, nil
		}
		metrics.ObserveClassifier(c.name, "error", elapsed)
		if !IsRetryable(lastErr) || attempt == MaxRetries {
			break
		}

		metrics.IncClassifierRetry(c.name)
		c.log.Warn("retryable classifier error", "texts", len(texts), "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) Name() string { return c.name }

func (c *Client) Stats() StatsSnapshot { return c.stats.Snapshot() }

// Close releases resources.
func (c *Client) Close() { c.backend.Close() }
