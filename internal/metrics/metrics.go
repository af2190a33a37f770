package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	classifierCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiscan",
			Name:      "classifier_calls_total",
			Help:      "Batched classifier calls by backend and result",
		},
		[]string{"backend", "result"},
	)

	classifierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiscan",
			Name:      "classifier_call_duration_seconds",
			Help:      "Duration of batched classifier calls by backend",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	classifierRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiscan",
			Name:      "classifier_retries_total",
			Help:      "Retries of transient classifier failures by backend",
		},
		[]string{"backend"},
	)

	chunksPerDoc = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aiscan",
			Name:      "document_chunks",
			Help:      "Number of chunks produced per analyzed document",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	documentScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aiscan",
			Name:      "document_score",
			Help:      "Aggregate AI score per analyzed document",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	documentsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiscan",
			Name:      "documents_analyzed_total",
			Help:      "Documents analyzed by source (file, text) and result",
		},
		[]string{"source", "result"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aiscan",
			Name:      "job_queue_depth",
			Help:      "Jobs waiting in the async analysis queue",
		},
	)

	registerOnce sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(classifierCalls, classifierLatency, classifierRetries,
			chunksPerDoc, documentScore, documentsAnalyzed, queueDepth)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveClassifier(backend, result string, dur time.Duration) {
	classifierCalls.WithLabelValues(backend, result).Inc()
	classifierLatency.WithLabelValues(backend).Observe(dur.Seconds())
}

func IncClassifierRetry(backend string) { classifierRetries.WithLabelValues(backend).Inc() }

func ObserveDocument(source string, chunks int, score float64) {
	documentsAnalyzed.WithLabelValues(source, "ok").Inc()
	chunksPerDoc.Observe(float64(chunks))
	documentScore.Observe(score)
}

func IncDocumentFailed(source string) { documentsAnalyzed.WithLabelValues(source, "error").Inc() }

func SetQueueDepth(v int) { queueDepth.Set(float64(v)) }
