package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/aiscan/internal/classifier"
	"github.com/dgallion1/aiscan/internal/config"
	"github.com/dgallion1/aiscan/internal/metrics"
	"github.com/dgallion1/aiscan/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ClassifierStats exposes latency statistics of the active classifier.
type ClassifierStats interface {
	Name() string
	Stats() classifier.StatsSnapshot
}

// Server is the HTTP API server for aiscan.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	analyzer     pipeline.Analyzer
	stats        ClassifierStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. analyzer carries the
// file-upload defaults; pasted text uses cfg.TextThreshold.
func NewServer(orch *pipeline.Orchestrator, analyzer pipeline.Analyzer, stats ClassifierStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		analyzer:     analyzer,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/detect", s.handleDetect)
		r.Post("/api/detect/text", s.handleDetectText)
		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/classifier", s.handleClassifierStats)
	})

	s.router = r
}

func (s *Server) textAnalyzer() pipeline.Analyzer {
	a := s.analyzer
	a.Threshold = s.cfg.TextThreshold
	return a
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
