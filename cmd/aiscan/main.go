// Command aiscan scores documents or pasted text for AI-generated content
// and prints the JSON report.
//
//	aiscan [-threshold 0.6] [-min-words 40] [-max-words 250] FILE...
//	aiscan - < pasted.txt
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dgallion1/aiscan/internal/classifier"
	"github.com/dgallion1/aiscan/internal/config"
	"github.com/dgallion1/aiscan/internal/parser"
	"github.com/dgallion1/aiscan/internal/pipeline"
	"github.com/dgallion1/aiscan/internal/segment"
)

func main() {
	cfg := config.Load()

	threshold := flag.Float64("threshold", -1, "AI label threshold in [0,1] (default DETECT_THRESHOLD, or TEXT_THRESHOLD for stdin)")
	minWords := flag.Int("min-words", cfg.MinWords, "advisory minimum words per chunk")
	maxWords := flag.Int("max-words", cfg.MaxWords, "maximum words per chunk")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] FILE... | -\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

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
	defer clf.Close()

	analyzer := pipeline.Analyzer{
		Classifier: clf,
		Bounds:     segment.Bounds{MinWords: *minWords, MaxWords: *maxWords},
		Threshold:  cfg.DetectThreshold,
		Parser: parser.Options{
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
			PDFTimeout:           cfg.PDFTimeout,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var out any
	if flag.NArg() == 1 && flag.Arg(0) == "-" {
		analyzer.Threshold = cfg.TextThreshold
		if *threshold >= 0 {
			analyzer.Threshold = *threshold
		}
		out, err = analyzeStdin(ctx, analyzer)
	} else {
		if *threshold >= 0 {
			analyzer.Threshold = *threshold
		}
		out, err = analyzeFiles(ctx, analyzer, flag.Args(), cfg.MaxConcurrentDocs)
	}
	if err != nil {
		log.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error("write report", "error", err)
		os.Exit(1)
	}
}

func analyzeStdin(ctx context.Context, a pipeline.Analyzer) (any, error) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return a.AnalyzeText(ctx, string(raw))
}

type fileOutput struct {
	pipeline.FileResult
	Error string `json:"error,omitempty"`
}

// analyzeFiles returns a single report for one file and a list otherwise.
func analyzeFiles(ctx context.Context, a pipeline.Analyzer, paths []string, limit int) (any, error) {
	inputs := make([]pipeline.FileInput, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		inputs = append(inputs, pipeline.FileInput{Filename: p, Data: data})
	}

	results := a.AnalyzeBatch(ctx, inputs, limit, nil)
	if len(results) == 1 {
		if results[0].Err != nil {
			return nil, results[0].Err
		}
		return results[0].Report, nil
	}

	out := make([]fileOutput, len(results))
	for i, r := range results {
		out[i] = fileOutput{FileResult: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out, nil
}
