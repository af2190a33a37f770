package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/aiscan/internal/metrics"
)

// Worker processes a single analysis job.
type Worker struct {
	analyzer          Analyzer
	log               *slog.Logger
	maxConcurrentDocs int
}

func NewWorker(analyzer Analyzer, log *slog.Logger, maxConcurrentDocs int) *Worker {
	return &Worker{
		analyzer:          analyzer,
		log:               log,
		maxConcurrentDocs: maxConcurrentDocs,
	}
}

// Process analyzes every document in the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	job.SetStatus(StatusRunning, "analyzing")

	inputs := job.Inputs()
	defer job.ReleaseInputs()
	log.Info("job started", "documents", len(inputs))

	analyzer := w.analyzer.With(job.Overrides)
	results := analyzer.AnalyzeBatch(ctx, inputs, w.maxConcurrentDocs, job.SetDocStatus)

	completed := 0
	for i, r := range results {
		if r.Err != nil {
			log.Error("document failed", "filename", r.Filename, "error", r.Err)
			metrics.IncDocumentFailed("file")
			job.FailDoc(i, r.Err)
			continue
		}
		completed++
		metrics.ObserveDocument("file", r.Report.Chunks, r.Report.Score)
		log.Info("document analyzed", "filename", r.Filename,
			"chunks", r.Report.Chunks, "overall_score", r.Report.Score)
		job.CompleteDoc(i, r.Report)
	}

	switch {
	case completed == len(results):
		job.SetStatus(StatusCompleted, "done")
	case completed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "analyzing")
	}
	log.Info("job finished", "completed", completed, "failed", len(results)-completed)
}
