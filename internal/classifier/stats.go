package classifier

import (
	"slices"
	"sync"
	"time"
)

type batchSample struct {
	at       time.Time
	duration time.Duration
	texts    int
	failed   bool
}

// StatsSnapshot aggregates the batch calls still inside the window.
// Latency percentiles cover successful calls only.
type StatsSnapshot struct {
	Batches  int     `json:"batches"`
	Failures int     `json:"failures"`
	Texts    int     `json:"texts"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
	// MsPerText is the mean successful latency divided by mean batch size.
	MsPerText float64 `json:"ms_per_text"`
}

// Stats keeps a rolling window of classifier batch calls.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []batchSample
	now     func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		window:  window,
		samples: make([]batchSample, 0, 128),
		now:     time.Now,
	}
}

// Observe records one batch call of n texts.
func (s *Stats) Observe(d time.Duration, n int, err error) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)
	s.samples = append(s.samples, batchSample{at: now, duration: d, texts: n, failed: err != nil})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(s.now())

	var snap StatsSnapshot
	ms := make([]int64, 0, len(s.samples))
	var sumMs int64
	var okTexts int
	for _, b := range s.samples {
		snap.Batches++
		snap.Texts += b.texts
		if b.failed {
			snap.Failures++
			continue
		}
		v := b.duration.Milliseconds()
		ms = append(ms, v)
		sumMs += v
		okTexts += b.texts
	}
	if len(ms) == 0 {
		return snap
	}

	slices.Sort(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sumMs) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	if okTexts > 0 {
		snap.MsPerText = float64(sumMs) / float64(okTexts)
	}
	return snap
}

func (s *Stats) evictLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

// percentile linearly interpolates between closest ranks of sorted values.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}
