// Package tokenize splits text into words and sentences for the local
// embedder, the summarizer and lexical ranking.
package tokenize

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Words returns the lowercased words of text.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// Terms returns the lowercased words of text without stopwords.
func Terms(text string) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// IsStopword reports whether w is a common English function word.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Sentences returns the sentences of text, each ending in a run of '.', '!'
// or '?'. Trailing text without terminal punctuation is the last sentence.
// Blank fragments are skipped.
func Sentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	out := matches[:0]
	for _, m := range matches {
		if strings.TrimSpace(m) != "" {
			out = append(out, m)
		}
	}
	return out
}
