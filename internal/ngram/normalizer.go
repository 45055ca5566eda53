// Package ngram turns free text into sets of overlapping character n-grams.
// Text is first normalized to a fixed alphabet (ASCII digits, lower-case ASCII
// letters and precomposed Hangul syllables) so that the same visible string
// always yields the same grams.
package ngram

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	hangulFirst = '\uAC00' // 가
	hangulLast  = '\uD7A3' // 힣
)

// Normalize canonicalizes text: NFC composition, removal of every rune outside
// [0-9A-Za-z가-힣], and ASCII lower-casing. It never fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	composed := norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= hangulFirst && r <= hangulLast:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
