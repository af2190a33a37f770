package textclean

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Clean normalizes extracted text: NFKC, non-printable runes become spaces,
// curly quotes become straight ones, and whitespace runs collapse to a single
// space.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return ' '
		}
		return r
	}, s)
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Paragraphs splits pasted text on newlines and returns the trimmed,
// non-empty lines. Each line is one paragraph. Lines are not cleaned.
func Paragraphs(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			out = append(out, p)
		}
	}
	return out
}
