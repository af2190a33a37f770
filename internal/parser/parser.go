package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/dgallion1/aiscan/internal/textclean"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrContentMismatch means the file bytes do not match its extension.
	ErrContentMismatch = errors.New("file content does not match extension")
	// ErrMalformed wraps failures to parse a document's contents, as opposed
	// to I/O failures on the server side.
	ErrMalformed = errors.New("malformed document")
)

// Extractor converts raw document bytes into pages of cleaned paragraphs.
type Extractor interface {
	Extract(r io.Reader, filename string) ([]document.Page, error)
}

// Options tunes format-specific extraction.
type Options struct {
	PDFFallbackPdftotext bool
	PDFTimeout           time.Duration
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: opts.PDFFallbackPdftotext, Timeout: opts.PDFTimeout}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs splits a block of page text on blank lines and cleans each
// paragraph, dropping the empty ones.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range blankLineRe.Split(text, -1) {
		if p = textclean.Clean(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dropEmptyPages removes pages that ended up with no paragraphs.
func dropEmptyPages(pages []document.Page) []document.Page {
	out := pages[:0]
	for _, p := range pages {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
