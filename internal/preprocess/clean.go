// Package preprocess normalizes free-text answers before they are
// vectorized or graded.
package preprocess

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`http\S+`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Clean lowercases text, strips URLs and punctuation, collapses
// whitespace and drops English stopwords.
func Clean(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens returns the cleaned words of text in order.
func Tokens(text string) []string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, "")

	fields := strings.Fields(text)
	out := fields[:0]
	for _, w := range fields {
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsStopword reports whether w is in the English stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
