// Package slug turns display names into URL-safe identifiers and back.
package slug

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Make returns the slug for s: lower-case Latin letters, digits, Cyrillic
// letters and single hyphens, with no leading or trailing hyphen.
// It never fails; input with nothing to keep yields "".
// Make(Make(s)) == Make(s) for every s.
func Make(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case keep(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || isSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

func keep(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		(r >= 0x0400 && r <= 0x04FF)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

var separators = regexp.MustCompile(`[-_]+`)

// ToName reconstructs a display name from a slug-like key: "blue-jacket"
// becomes "Blue Jacket". It is best-effort; case and punctuation lost by
// Make are not recovered.
func ToName(key string) string {
	raw, err := url.PathUnescape(key)
	if err != nil {
		raw = key
	}
	spaced := strings.Join(strings.Fields(separators.ReplaceAllString(raw, " ")), " ")

	var b strings.Builder
	b.Grow(len(spaced))
	prevWord := false
	for _, r := range spaced {
		if unicode.IsLetter(r) && !prevWord {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		prevWord = unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\uFEFF'
	}
	return b.String()
}
