package certpdf

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest patient name, in characters, accepted after
// sanitizing.
const MaxNameLength = 100

// SanitizeName strips characters that must never reach the document
// (ASCII control characters, zero-width space/joiner/non-joiner, byte-order
// mark, soft hyphen), trims surrounding whitespace and enforces the length
// bounds. Applying it to its own output returns the output unchanged.
func SanitizeName(name string) (string, error) {
	clean := strings.TrimSpace(strings.Map(dropInvisible, name))
	if clean == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(clean) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return clean, nil
}

func dropInvisible(r rune) rune {
	switch {
	case r < 0x20, r == 0x7f:
		return -1
	case r == '\u200b', r == '\u200c', r == '\u200d', r == '\ufeff', r == '\u00ad':
		return -1
	case r == utf8.RuneError:
		return -1
	}
	return r
}
