package playfair

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns free text into cipher input: accents are stripped,
// letters are uppercased, anything outside A-Z is dropped, and J becomes I
// when foldJ is set.
func Normalize(text string, foldJ bool) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		r = unicode.ToUpper(r)
		if !isLetter(r) {
			continue
		}
		b.WriteRune(fold(r, foldJ))
	}
	return b.String()
}
