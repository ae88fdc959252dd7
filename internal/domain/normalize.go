package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSentence prepares user input before it is sent upstream:
//   - trims leading/trailing whitespace
//   - composes to Unicode NFC (so decomposed kana and accents compare equal)
//   - compresses runs of spaces and tabs into a single space
//
// Line breaks and case are preserved.
func NormalizeSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
