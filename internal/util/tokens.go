package util

import (
	"strings"
	"unicode"
)

// CountTokens returns the number of words in text, where words are separated
// by Unicode whitespace or ASCII punctuation. Empty fragments are not counted.
func CountTokens(text string) int {
	return len(strings.FieldsFunc(text, isTokenSeparator))
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || isASCIIPunct(r)
}

func isASCIIPunct(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}
