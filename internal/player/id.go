package player

import (
	"strings"
	"unicode"
)

// IDPrefix starts every player id.
const IDPrefix = "player-"

// ID derives a player id from its media locator.
func ID(url string) string {
	return IDPrefix + snakeCase(url)
}

// snakeCase lowercases s and joins its words with "_". Every run of characters
// that are neither letters nor digits becomes one separator, leading runs are
// dropped and a trailing one is kept. An upper-case letter starts a new word when
// it follows a lower-case letter or begins a lower-case tail after capitals, as in
// "HTMLParser". Digits stay attached to the word around them.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	pending := false
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pending = b.Len() > 0
			continue
		}
		switch {
		case pending:
			b.WriteByte('_')
			pending = false
		case unicode.IsUpper(r) && i > 0 && wordBoundary(runes, i):
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	if pending {
		b.WriteByte('_')
	}
	return b.String()
}

// wordBoundary reports whether the upper-case rune at i starts a new word.
func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) {
		return true
	}
	if !unicode.IsUpper(prev) {
		return false
	}
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
