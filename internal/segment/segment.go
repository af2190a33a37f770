package segment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/aiscan/internal/document"
)

// ErrInvalidBounds is returned when word bounds are non-positive or inverted.
var ErrInvalidBounds = errors.New("invalid word bounds")

// Bounds controls chunk sizing in words.
type Bounds struct {
	MinWords int // Advisory only; the last chunk of a page may be shorter.
	MaxWords int // Hard upper limit per chunk.
}

// DefaultBounds returns the bounds used when nothing is configured.
func DefaultBounds() Bounds {
	return Bounds{
		MinWords: 40,
		MaxWords: 250,
	}
}

// Validate rejects bounds the segmenter cannot honor.
func (b Bounds) Validate() error {
	if b.MinWords < 1 {
		return fmt.Errorf("%w: min_words must be >= 1, got %d", ErrInvalidBounds, b.MinWords)
	}
	if b.MaxWords < 1 {
		return fmt.Errorf("%w: max_words must be >= 1, got %d", ErrInvalidBounds, b.MaxWords)
	}
	if b.MaxWords < b.MinWords {
		return fmt.Errorf("%w: max_words (%d) < min_words (%d)", ErrInvalidBounds, b.MaxWords, b.MinWords)
	}
	return nil
}

// Segment turns pages of paragraphs into classifier-ready chunks.
//
// Paragraphs are packed greedily into an accumulator that is flushed before it
// would exceed MaxWords. A paragraph longer than MaxWords is cut into
// MaxWords-sized windows of its own. Chunks never cross a page boundary and
// are returned in document order. MinWords is not enforced.
func Segment(pages []document.Page, b Bounds) ([]document.Chunk, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var chunks []document.Chunk
	for i, page := range pages {
		chunks = appendPage(chunks, i+1, page, b.MaxWords)
	}
	return chunks, nil
}

// appendPage segments a single page and appends its chunks to out.
func appendPage(out []document.Chunk, pageNum int, page document.Page, maxWords int) []document.Chunk {
	var acc []string
	accWords := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		out = append(out, document.Chunk{Page: pageNum, Text: strings.Join(acc, " ")})
		acc = acc[:0]
		accWords = 0
	}

	for _, para := range page {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := strings.Fields(para)

		if len(words) > maxWords {
			flush()
			for _, w := range splitWindows(words, maxWords) {
				out = append(out, document.Chunk{Page: pageNum, Text: w})
			}
			continue
		}

		if accWords+len(words) > maxWords {
			flush()
		}
		acc = append(acc, para)
		accWords += len(words)
	}
	flush()

	return out
}

// splitWindows cuts words into consecutive windows of size n; the last one
// may be shorter.
func splitWindows(words []string, n int) []string {
	windows := make([]string, 0, (len(words)+n-1)/n)
	for start := 0; start < len(words); start += n {
		end := min(start+n, len(words))
		windows = append(windows, strings.Join(words[start:end], " "))
	}
	return windows
}
