package textclass

import (
	"strings"
	"unicode"
)

// Normalize turns raw text into the canonical token stream used by the
// vectorizer: lowercase ASCII words, everything that is not a letter or
// whitespace removed, whitespace collapsed.
func Normalize(text string) []string {
	if text == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Fields(b.String())
}

// Clean returns the normalized tokens joined by single spaces.
func Clean(text string) string {
	return strings.Join(Normalize(text), " ")
}
