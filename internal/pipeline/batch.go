package pipeline

import (
	"context"

	"github.com/dgallion1/aiscan/internal/document"
	"golang.org/x/sync/errgroup"
)

// FileInput is one uploaded document awaiting analysis.
type FileInput struct {
	Filename string
	Data     []byte
}

// FileResult holds either the report or the error for one document.
type FileResult struct {
	Filename string           `json:"filename"`
	Report   *document.Report `json:"report,omitempty"`
	Err      error            `json:"-"`
}

// AnalyzeBatch analyzes files with at most limit documents in flight.
// A failing document does not stop the others. Results keep input order.
// onPhase, if set, is called as each document moves between phases.
func (a Analyzer) AnalyzeBatch(ctx context.Context, files []FileInput, limit int, onPhase func(i int, s JobStatus)) []FileResult {
	results := make([]FileResult, len(files))
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, f := range files {
		results[i].Filename = f.Filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			var hook func(JobStatus)
			if onPhase != nil {
				hook = func(s JobStatus) { onPhase(i, s) }
			}
			results[i].Report, results[i].Err = a.analyzeFile(ctx, f.Data, f.Filename, hook)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
