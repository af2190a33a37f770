package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/aiscan/internal/api"
	"github.com/dgallion1/aiscan/internal/classifier"
	"github.com/dgallion1/aiscan/internal/config"
	"github.com/dgallion1/aiscan/internal/metrics"
	"github.com/dgallion1/aiscan/internal/parser"
	"github.com/dgallion1/aiscan/internal/pipeline"
	"github.com/dgallion1/aiscan/internal/segment"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	// Initialize classifier.
	clf, err := classifier.New(classifier.Config{
		Backend:         cfg.ClassifierBackend,
		URL:             cfg.ClassifierURL,
		APIKey:          cfg.ClassifierAPIKey,
		SigmoidScale:    cfg.ClassifierSigmoidScale,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		Timeout:         cfg.ClassifierTimeout,
	}, log)
	if err != nil {
		log.Error("classifier init failed", "error", err)
		os.Exit(1)
	}

	analyzer := pipeline.Analyzer{
		Classifier: clf,
		Bounds:     segment.Bounds{MinWords: cfg.MinWords, MaxWords: cfg.MaxWords},
		Threshold:  cfg.DetectThreshold,
		Parser: parser.Options{
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
			PDFTimeout:           cfg.PDFTimeout,
		},
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		WorkerCount:       cfg.WorkerCount,
		MaxQueueSize:      cfg.MaxQueueSize,
		MaxConcurrentDocs: cfg.MaxConcurrentDocs,
		JobTTL:            cfg.JobTTL,
	}, analyzer, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, analyzer, clf, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		clf.Close()
	}()

	log.Info("starting aiscan", "port", cfg.Port, "backend", clf.Name(),
		"min_words", cfg.MinWords, "max_words", cfg.MaxWords, "threshold", cfg.DetectThreshold)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
