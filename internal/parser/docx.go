package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/dgallion1/aiscan/internal/textclean"
	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Manual page breaks start a new page;
// text before the break stays on the old page.
type DOCXExtractor struct{}

func (p *DOCXExtractor) Extract(r io.Reader, filename string) ([]document.Page, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "aiscan-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %w", ErrMalformed, err)
	}

	return docxPages(doc.Document.Body.Items), nil
}

// docxPages walks body paragraphs in order and groups them into pages.
func docxPages(items []any) []document.Page {
	pages := []document.Page{{}}
	var buf strings.Builder

	flush := func() {
		if t := textclean.Clean(buf.String()); t != "" {
			pages[len(pages)-1] = append(pages[len(pages)-1], t)
		}
		buf.Reset()
	}

	for _, item := range items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				switch v := rc.(type) {
				case *docx.Text:
					buf.WriteString(v.Text)
				case *docx.Tab:
					buf.WriteString(" ")
				case *docx.BarterRabbet:
					if v.Type == "page" {
						flush()
						pages = append(pages, document.Page{})
					} else {
						buf.WriteString(" ")
					}
				}
			}
		}
		flush()
	}

	return dropEmptyPages(pages)
}
