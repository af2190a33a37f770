package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/aiscan/internal/document"
)

// TextExtractor handles plain text files as a single page of
// blank-line separated paragraphs. Line length is not limited.
type TextExtractor struct{}

func (p *TextExtractor) Extract(r io.Reader, filename string) ([]document.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	page := splitParagraphs(string(data))
	if len(page) == 0 {
		return nil, nil
	}
	return []document.Page{page}, nil
}
