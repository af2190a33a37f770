package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Remote calls a model-serving endpoint that scores a batch of texts in one
// request:
//
//	POST {url}  {"texts": ["...", ...]}  ->  {"probabilities": [0.12, ...]}
//
// When SigmoidScale is positive each raw value p is calibrated to
// 1/(1+exp(-SigmoidScale*p)) before it is returned.
type Remote struct {
	url          string
	apiKey       string
	sigmoidScale float64
	httpClient   *http.Client
}

func NewRemote(url, apiKey string, sigmoidScale float64, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remote{
		url:          url,
		apiKey:       apiKey,
		sigmoidScale: sigmoidScale,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Texts []string `json:"texts"`
}

type remoteResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

func (r *Remote) Classify(ctx context.Context, texts []string) ([]float64, error) {
	body, err := json.Marshal(remoteRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("classifier endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier endpoint status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out remoteResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("classifier endpoint error: %s", out.Error)
	}

	if r.sigmoidScale > 0 {
		for i, p := range out.Probabilities {
			out.Probabilities[i] = sigmoid(r.sigmoidScale * p)
		}
	}
	return out.Probabilities, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Close releases resources.
func (r *Remote) Close() {
	r.httpClient.CloseIdleConnections()
}
