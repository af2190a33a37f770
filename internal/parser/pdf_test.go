package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// buildPDF assembles a minimal PDF with one page per content stream. An
// empty stream produces a page without /Contents.
func buildPDF(streams ...string) []byte {
	var objs []string
	kids := make([]string, len(streams))
	next := 4 // 1 catalog, 2 page tree, 3 font
	var pageObjs []string
	for i, s := range streams {
		pageNum := next
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)
		page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>"
		if s != "" {
			page += fmt.Sprintf(" /Contents %d 0 R", pageNum+1)
		}
		page += " >>"
		pageObjs = append(pageObjs, page)
		if s != "" {
			pageObjs = append(pageObjs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(s), s))
			next += 2
		} else {
			next++
		}
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(streams)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	objs = append(objs, pageObjs...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_KeepsEmptyPages(t *testing.T) {
	data := buildPDF("", "BT /F1 12 Tf 72 720 Td (Hello world) Tj ET")

	p := &PDFExtractor{}
	pages, err := p.Extract(bytes.NewReader(data), "two.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(pages), pages)
	}
	if len(pages[0]) != 0 {
		t.Errorf("expected empty first page, got %q", pages[0])
	}
	if len(pages[1]) != 1 || pages[1][0] != "Hello world" {
		t.Errorf("expected second page [Hello world], got %q", pages[1])
	}
}

func TestPDFExtractor_UnreadablePages(t *testing.T) {
	bad := "BT /F1 12 Tf (Hello) Tj ) ET"

	t.Run("all pages fail", func(t *testing.T) {
		p := &PDFExtractor{}
		_, err := p.Extract(bytes.NewReader(buildPDF(bad)), "broken.pdf")
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("some pages fail", func(t *testing.T) {
		p := &PDFExtractor{}
		pages, err := p.Extract(bytes.NewReader(buildPDF(bad, "BT /F1 12 Tf (Fine page) Tj ET")), "mixed.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 2 || len(pages[0]) != 0 || strings.Join(pages[1], "|") != "Fine page" {
			t.Errorf("expected unreadable page kept empty, got %q", pages)
		}
	})
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	p := &PDFExtractor{}
	_, err := p.Extract(strings.NewReader("%PDF-1.4\ntruncated"), "cut.pdf")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("returns result", func(t *testing.T) {
		texts, err := withTimeout(time.Second, func() ([]string, error) {
			return []string{"a"}, nil
		})
		if err != nil || len(texts) != 1 {
			t.Errorf("expected [a], got %v, %v", texts, err)
		}
	})

	t.Run("gives up on a stuck extraction", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		_, err := withTimeout(20*time.Millisecond, func() ([]string, error) {
			<-release
			return nil, nil
		})
		if !errors.Is(err, errPDFTimeout) {
			t.Fatalf("expected timeout error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("timeout took %s", elapsed)
		}
	})

	t.Run("recovers a panic", func(t *testing.T) {
		_, err := withTimeout(time.Second, func() ([]string, error) {
			panic("bad xref")
		})
		if err == nil || !strings.Contains(err.Error(), "bad xref") {
			t.Errorf("expected panic as error, got %v", err)
		}
	})
}
