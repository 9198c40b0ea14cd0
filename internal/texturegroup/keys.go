package texturegroup

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// CleanKey strips whitespace and every rune that is not a letter or a digit.
// Case is preserved.
func CleanKey(s string) string {
	t := runes.Remove(runes.Predicate(func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
