package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/dgallion1/aiscan/internal/segment"
)

var (
	// ErrLengthMismatch means the classifier returned a different number of
	// probabilities than texts it was given.
	ErrLengthMismatch = errors.New("classifier returned mismatched result count")
	// ErrProbabilityRange means the classifier returned a value outside [0,1].
	ErrProbabilityRange = errors.New("classifier probability out of range")
	// ErrInvalidThreshold is returned for thresholds outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")
)

// Classifier returns, for each input text, the probability that it is
// AI-generated. Results must be in input order. Implementations shared
// across requests must be safe for concurrent use; wrap them with
// Serialized otherwise.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]float64, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, texts []string) ([]float64, error)

func (f ClassifierFunc) Classify(ctx context.Context, texts []string) ([]float64, error) {
	return f(ctx, texts)
}

// Serialized wraps a non-reentrant classifier so that only one batch runs at
// a time.
func Serialized(c Classifier) Classifier {
	return &serialized{inner: c}
}

type serialized struct {
	mu    sync.Mutex
	inner Classifier
}

func (s *serialized) Classify(ctx context.Context, texts []string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Classify(ctx, texts)
}

// ClassifyAll runs the classifier once over every chunk and labels each one.
// An empty chunk list yields an empty result without calling the classifier.
func ClassifyAll(ctx context.Context, chunks []document.Chunk, c Classifier, threshold float64) ([]document.Detection, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []document.Detection{}, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	probs, err := c.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("classify %d chunks: %w", len(texts), err)
	}
	if len(probs) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d probabilities", ErrLengthMismatch, len(texts), len(probs))
	}

	detections := make([]document.Detection, len(chunks))
	for i, ch := range chunks {
		p := probs[i]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrProbabilityRange, i, p)
		}
		p = Round(p, 4)
		detections[i] = document.Detection{
			Page:          ch.Page,
			Text:          ch.Text,
			WordCount:     segment.CountWords(ch.Text),
			ProbabilityAI: p,
			Prediction:    Label(p, threshold),
		}
	}
	return detections, nil
}

// Label maps a probability to a prediction. The comparison is inclusive.
func Label(p, threshold float64) document.Prediction {
	if p >= threshold {
		return document.AIGenerated
	}
	return document.HumanWritten
}

// AggregateScore reduces detections to a document score in [0,100].
//
// The score is the AI-labelled share of the total probability mass:
// 100 * sum(p | AI) / (sum(p | AI) + sum(p | Human)). A few confident AI
// chunks outweigh many low-probability human chunks, so this is a relative
// confidence ratio rather than a calibrated probability.
func AggregateScore(detections []document.Detection) float64 {
	if len(detections) == 0 {
		return 0.0
	}

	var aiSum, humanSum float64
	for _, d := range detections {
		switch d.Prediction {
		case document.AIGenerated:
			aiSum += d.ProbabilityAI
		case document.HumanWritten:
			humanSum += d.ProbabilityAI
		}
	}

	denom := aiSum + humanSum
	if denom == 0 {
		return 0.0
	}
	return Round(100*aiSum/denom, 2)
}

// ValidateThreshold rejects thresholds outside [0,1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
