package utils

import "strings"

const (
	openingPunctuation = `("'<`
	closingPunctuation = `)"'>,;:!?.`
)

// TrimEnclosing strips sentence punctuation wrapped around a token, such as
// "(example.com)", "<https://example.com>" or "example.com,". Leading dots are
// left alone.
func TrimEnclosing(token string) string {
	token = strings.TrimLeft(token, openingPunctuation)
	return strings.TrimRight(token, closingPunctuation)
}
