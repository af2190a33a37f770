package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CheckContent sniffs the magic bytes of data and verifies they agree with
// the filename's extension. It returns the detected MIME type.
func CheckContent(data []byte, filename string) (string, error) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))

	var want string
	switch ext {
	case ".pdf":
		want = "application/pdf"
	case ".docx":
		// Office Open XML files are zip archives; detection of the specific
		// subtype depends on member ordering inside the archive.
		want = "application/zip"
	case ".txt", ".md", ".markdown", ".html", ".htm":
		want = "text/plain"
	default:
		return mt.String(), fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if !descendsFrom(mt, want) {
		return mt.String(), fmt.Errorf("%w: %s looks like %s, not %s", ErrContentMismatch, filename, mt.String(), want)
	}
	return mt.String(), nil
}

// descendsFrom reports whether mt is want or a subtype of it in mimetype's
// detection tree.
func descendsFrom(mt *mimetype.MIME, want string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}
