package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRemote_BatchRequest(t *testing.T) {
	var gotAuth string
	var gotTexts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotTexts = req.Texts
		json.NewEncoder(w).Encode(remoteResponse{Probabilities: []float64{0.1, 0.9}})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "secret", 0, time.Second)
	defer r.Close()

	probs, err := r.Classify(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if len(gotTexts) != 2 || gotTexts[0] != "one" || gotTexts[1] != "two" {
		t.Errorf("unexpected texts sent: %q", gotTexts)
	}
	if len(probs) != 2 || probs[0] != 0.1 || probs[1] != 0.9 {
		t.Errorf("unexpected probabilities: %v", probs)
	}
}

func TestRemote_SigmoidCalibration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"probabilities":[0, 0.2]}`))
	}))
	defer srv.Close()

	probs, err := NewRemote(srv.URL, "", 25, time.Second).Classify(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] != 0.5 {
		t.Errorf("sigmoid(0) should be 0.5, got %v", probs[0])
	}
	want := 1 / (1 + math.Exp(-5))
	if math.Abs(probs[1]-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, probs[1])
	}
}

func TestRemote_StatusHandling(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		_, err := NewRemote(srv.URL, "", 0, time.Second).Classify(context.Background(), []string{"a"})
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable=%v, want %v (%v)", tt.status, IsRetryable(err), tt.retryable, err)
		}
	}
}

func TestClaude_ParsesFencedArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "[2]\nsecond passage") {
			t.Errorf("prompt does not number passages: %q", req.Messages[0].Content)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"` + "```json\\n[0.25, 0.75]\\n```" + `"}]}`))
	}))
	defer srv.Close()

	c := NewClaude("k", "test-model", time.Second)
	c.endpoint = srv.URL

	probs, err := c.Classify(context.Background(), []string{"first passage", "second passage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 || probs[0] != 0.25 || probs[1] != 0.75 {
		t.Errorf("unexpected probabilities: %v", probs)
	}
}

func TestClaude_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	c := NewClaude("k", "m", time.Second)
	c.endpoint = srv.URL
	if _, err := c.Classify(context.Background(), []string{"a"}); err == nil || !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := map[string]string{
		"[0.1]":                "[0.1]",
		"```json\n[0.1]\n```":  "[0.1]",
		"```\n[0.2, 0.3]\n```": "[0.2, 0.3]",
		"  [0.4]  ":            "[0.4]",
	}
	for in, want := range tests {
		if got := stripCodeBlock(in); got != want {
			t.Errorf("stripCodeBlock(%q) = %q, want %q", in, got, want)
		}
	}
}

type scriptedBackend struct {
	errs  []error
	calls int32
}

func (s *scriptedBackend) Classify(_ context.Context, texts []string) ([]float64, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if int(n) <= len(s.errs) && s.errs[n-1] != nil {
		return nil, s.errs[n-1]
	}
	return make([]float64, len(texts)), nil
}

func (s *scriptedBackend) Close() {}

func TestClient_RetriesTransientErrors(t *testing.T) {
	b := &scriptedBackend{errs: []error{
		&RetryableError{StatusCode: 503},
		&RetryableError{StatusCode: 429},
	}}
	c := newClient(b, "test", NewStats(time.Hour), testLogger())
	c.backoff = func(int) time.Duration { return 0 }

	probs, err := c.Classify(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 {
		t.Errorf("expected 2 probabilities, got %d", len(probs))
	}
	if b.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", b.calls)
	}
	snap := c.Stats()
	if snap.Batches != 3 || snap.Failures != 2 {
		t.Errorf("expected 3 batches / 2 failures recorded, got %+v", snap)
	}
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	errs := make([]error, MaxRetries+5)
	for i := range errs {
		errs[i] = &RetryableError{StatusCode: 500}
	}
	b := &scriptedBackend{errs: errs}
	c := newClient(b, "test", NewStats(time.Hour), testLogger())
	c.backoff = func(int) time.Duration { return 0 }

	_, err := c.Classify(context.Background(), []string{"a"})
	if !IsRetryable(err) {
		t.Fatalf("expected final retryable error, got %v", err)
	}
	if int(b.calls) != MaxRetries+1 {
		t.Errorf("expected %d attempts, got %d", MaxRetries+1, b.calls)
	}
}

func TestClient_NoRetryOnPermanentError(t *testing.T) {
	boom := errors.New("bad request")
	b := &scriptedBackend{errs: []error{boom}}
	c := newClient(b, "test", NewStats(time.Hour), testLogger())

	if _, err := c.Classify(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if b.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", b.calls)
	}
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	b := &scriptedBackend{errs: []error{&RetryableError{StatusCode: 503}}}
	c := newClient(b, "test", NewStats(time.Hour), testLogger())
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Classify(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_Backends(t *testing.T) {
	log := testLogger()
	if _, err := New(Config{Backend: BackendRemote}, log); err == nil {
		t.Error("expected error for remote without URL")
	}
	if _, err := New(Config{Backend: BackendClaude}, log); err == nil {
		t.Error("expected error for claude without key")
	}
	if _, err := New(Config{Backend: "bogus", URL: "http://x"}, log); err == nil {
		t.Error("expected error for unknown backend")
	}

	c, err := New(Config{URL: "http://localhost:9999/score"}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != BackendRemote {
		t.Errorf("expected default backend %q, got %q", BackendRemote, c.Name())
	}
	c.Close()
}
