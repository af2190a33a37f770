package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/dgallion1/aiscan/internal/parser"
	"github.com/dgallion1/aiscan/internal/score"
	"github.com/dgallion1/aiscan/internal/segment"
	"github.com/dgallion1/aiscan/internal/textclean"
)

// ErrExtract wraps every failure to read text out of an uploaded document.
// Only the parser.ErrMalformed ones are the caller's fault.
var ErrExtract = errors.New("document extraction failed")

// Analyzer runs pages through segmentation, classification and aggregation.
// The zero value is not usable; Classifier must be set.
type Analyzer struct {
	Classifier score.Classifier
	Bounds     segment.Bounds
	Threshold  float64
	Parser     parser.Options
}

// Overrides carries optional per-request tuning. Nil fields keep the
// Analyzer's values.
type Overrides struct {
	Threshold *float64
	MinWords  *int
	MaxWords  *int
}

// With returns a copy of a with the overrides applied. Values are validated
// when the copy runs.
func (a Analyzer) With(o Overrides) Analyzer {
	if o.Threshold != nil {
		a.Threshold = *o.Threshold
	}
	if o.MinWords != nil {
		a.Bounds.MinWords = *o.MinWords
	}
	if o.MaxWords != nil {
		a.Bounds.MaxWords = *o.MaxWords
	}
	return a
}

// Analyze segments pages into chunks, classifies them in one batch and
// aggregates the document score.
func (a Analyzer) Analyze(ctx context.Context, pages []document.Page) (*document.Report, error) {
	return a.analyze(ctx, pages, nil)
}

// AnalyzeText treats each non-empty line of raw as a paragraph on a single
// page.
func (a Analyzer) AnalyzeText(ctx context.Context, raw string) (*document.Report, error) {
	paragraphs := textclean.Paragraphs(raw)
	if len(paragraphs) == 0 {
		return a.Analyze(ctx, nil)
	}
	return a.Analyze(ctx, []document.Page{paragraphs})
}

// AnalyzeFile sniffs and extracts an uploaded document, then analyzes it.
func (a Analyzer) AnalyzeFile(ctx context.Context, data []byte, filename string) (*document.Report, error) {
	return a.analyzeFile(ctx, data, filename, nil)
}

// Extract verifies the content type and runs the matching extractor.
func (a Analyzer) Extract(data []byte, filename string) ([]document.Page, error) {
	ex, err := parser.ForFile(filename, a.Parser)
	if err != nil {
		return nil, err
	}
	if _, err := parser.CheckContent(data, filename); err != nil {
		return nil, err
	}
	pages, err := ex.Extract(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtract, filename, err)
	}
	return pages, nil
}

func (a Analyzer) analyzeFile(ctx context.Context, data []byte, filename string, onPhase func(JobStatus)) (*document.Report, error) {
	if onPhase != nil {
		onPhase(StatusExtracting)
	}
	pages, err := a.Extract(data, filename)
	if err != nil {
		return nil, err
	}
	return a.analyze(ctx, pages, onPhase)
}

func (a Analyzer) analyze(ctx context.Context, pages []document.Page, onPhase func(JobStatus)) (*document.Report, error) {
	if err := score.ValidateThreshold(a.Threshold); err != nil {
		return nil, err
	}
	if onPhase != nil {
		onPhase(StatusSegmenting)
	}
	chunks, err := segment.Segment(pages, a.Bounds)
	if err != nil {
		return nil, err
	}
	if onPhase != nil {
		onPhase(StatusClassifying)
	}
	detections, err := score.ClassifyAll(ctx, chunks, a.Classifier, a.Threshold)
	if err != nil {
		return nil, err
	}
	return buildReport(len(pages), a.Threshold, detections), nil
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the classifier or the server. Extraction failures count only when
// the document itself could not be parsed.
func IsInputError(err error) bool {
	return errors.Is(err, segment.ErrInvalidBounds) ||
		errors.Is(err, score.ErrInvalidThreshold) ||
		errors.Is(err, parser.ErrUnsupportedFormat) ||
		errors.Is(err, parser.ErrContentMismatch) ||
		errors.Is(err, parser.ErrMalformed)
}

func buildReport(pages int, threshold float64, detections []document.Detection) *document.Report {
	r := &document.Report{
		Score:      score.AggregateScore(detections),
		Threshold:  threshold,
		Pages:      pages,
		Chunks:     len(detections),
		Detections: detections,
	}
	for _, d := range detections {
		r.Words += d.WordCount
		if d.Prediction == document.AIGenerated {
			r.AIChunks++
		} else {
			r.HumanChunks++
		}
	}
	return r
}
