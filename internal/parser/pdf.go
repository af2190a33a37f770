package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dgallion1/aiscan/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// DefaultPDFTimeout bounds a single PDF extraction when PDFExtractor.Timeout
// is zero.
const DefaultPDFTimeout = 15 * time.Second

// errPDFTimeout marks an extraction that did not finish in time.
var errPDFTimeout = errors.New("pdf extraction timed out")

// PDFExtractor handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
//
// Every PDF page yields one Page, even when it has no extractable text, so
// page numbers in results match the source document.
//
// The library cannot be interrupted, so a timed-out extraction keeps its
// goroutine until the library returns. pdftotext runs as a subprocess and is
// killed at the deadline. When the library fails or finds no text at all,
// pdftotext gets a second try if FallbackPdftotext is set.
type PDFExtractor struct {
	FallbackPdftotext bool
	Timeout           time.Duration
}

func (p *PDFExtractor) Extract(r io.Reader, filename string) ([]document.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}

	texts, err := withTimeout(timeout, func() ([]string, error) {
		return extractPDFPages(data)
	})
	if p.FallbackPdftotext && (err != nil || !anyText(texts)) {
		alt, altErr := extractPdftotext(data, timeout)
		switch {
		case altErr == nil:
			texts, err = alt, nil
		case err == nil && errors.Is(altErr, errPDFTimeout):
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text: %w", ErrMalformed, err)
	}

	pages := make([]document.Page, len(texts))
	for i, text := range texts {
		pages[i] = splitParagraphs(text)
	}
	return pages, nil
}

// withTimeout runs fn and gives up after d. fn keeps running in the
// background after a timeout; its result is discarded.
func withTimeout(d time.Duration, fn func() ([]string, error)) ([]string, error) {
	type result struct {
		texts []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- result{err: fmt.Errorf("pdf library panic: %v", v)}
			}
		}()
		texts, err := fn()
		done <- result{texts, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.texts, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", errPDFTimeout, d)
	}
}

// extractPDFPages returns the plain text of every page. A page the library
// cannot read stays empty, unless no page at all could be read.
func extractPDFPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	texts := make([]string, numPages)
	var readable, failed int
	var lastErr error
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			failed++
			lastErr = fmt.Errorf("page %d: %w", i, err)
			continue
		}
		readable++
		texts[i-1] = text
	}
	if readable == 0 && failed > 0 {
		return nil, fmt.Errorf("no readable pages (%d failed): %w", failed, lastErr)
	}
	return texts, nil
}

func anyText(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

// extractPdftotext runs pdftotext on a temp copy of data and kills it after
// timeout.
func extractPdftotext(data []byte, timeout time.Duration) ([]string, error) {
	tmp, err := os.CreateTemp("", "aiscan-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", tmpPath, "-").Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("pdftotext: %w after %s", errPDFTimeout, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitFormFeeds(string(out)), nil
}

// splitFormFeeds splits pdftotext output into pages. pdftotext terminates
// every page with a form feed, so a trailing empty segment is dropped.
func splitFormFeeds(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
