package quiz

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Normalize canonicalizes free text into a comparable answer key: every
// character outside ASCII letters and digits is stripped and the remainder
// lowercased. The same function is applied to the card's source word at
// publish time and to every submitted answer, so comparison is case and
// punctuation insensitive.
func Normalize(text string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(text, ""))
}
