package parser

import (
	"iter"
	"strings"
)

// Tokens yields the whitespace-delimited substrings of input that contain a '.',
// left to right. The sequence is lazy and may be ranged over more than once.
func Tokens(input string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for field := range strings.FieldsSeq(input) {
			if !strings.Contains(field, ".") {
				continue
			}
			if !yield(field) {
				return
			}
		}
	}
}
