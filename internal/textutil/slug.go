package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts text into a lowercase underscore-separated token safe for
// filenames and object keys. Diacritics are stripped, everything that is not
// a letter or digit becomes an underscore, and runs collapse to one.
// Returns "untitled" when nothing survives.
func Slugify(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "untitled"
	}
	if stripped, _, err := transform.String(deaccenter, text); err == nil {
		text = stripped
	}
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "untitled"
	}
	return out
}
