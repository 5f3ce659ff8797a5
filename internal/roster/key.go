package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper removes combining marks after NFD decomposition, so
// "José" and "Jose" produce the same key.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// EntityKey normalizes a display name into the identity used across uploads:
// accents stripped, lower-cased, internal whitespace collapsed.
func EntityKey(name string) string {
	stripped, _, err := transform.String(accentStripper, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// firstLastKey reduces a key to its first and last whitespace tokens.
// Single-token keys collapse to that token.
func firstLastKey(key string) string {
	tokens := strings.Fields(key)
	if len(tokens) <= 1 {
		return key
	}
	return tokens[0] + " " + tokens[len(tokens)-1]
}

// firstToken returns the leading token of a key.
func firstToken(key string) string {
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
