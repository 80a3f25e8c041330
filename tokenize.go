package progscrape

import (
	"regexp"
	"strings"
)

// Tokens must be strictly longer than this to reach the search field.
const minTokenLength = 2

// ASCII punctuation, written as the four contiguous ranges of the table.
var wordDelimiters = regexp.MustCompile("[!-/:-@\\[-`{-~]")

// Tokenize reduces free text to its set of searchable words.
// Pipeline: punctuation -> space, lower, split, drop short and stop words.
func Tokenize(text string) map[string]struct{} {
	cleaned := wordDelimiters.ReplaceAllString(text, " ")
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(cleaned)) {
		if len(w) <= minTokenLength {
			continue
		}
		if _, bad := fullTextStopWords[w]; bad {
			continue
		}
		tokens[w] = struct{}{}
	}
	return tokens
}

// TokenizeURL tokenizes the path of a story URL. Terms that appear in nearly
// every URL are dropped on top of the usual stop-word filtering.
func TokenizeURL(rawURL string) map[string]struct{} {
	tokens := Tokenize(CleanURL(rawURL))
	for w := range urlStopWords {
		delete(tokens, w)
	}
	return tokens
}
