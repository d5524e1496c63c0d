// Package format renders answers and errors as display strings.
package format

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// NoMatchMessage is shown when the relevance policy rejects a retrieval.
const NoMatchMessage = "Unable to find matching results."

// Layouts of the response string.
const (
	LayoutInline = "inline"
	LayoutBlock  = "block"
)

// Source keys selecting which chunk field identifies a source.
const (
	SourceKeyPath = "source"
	SourceKeyID   = "id"
)

// Sources lists the identifier of every result under key in ranked order.
// Empty identifiers are dropped.
func Sources(results []domain.SearchResult, key string) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		var s string
		switch key {
		case SourceKeyID:
			s = r.Chunk.ChunkID
		default:
			s = r.Chunk.Source
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Response renders an answer in the given layout.
func Response(answer *domain.Answer, layout string) string {
	if answer.NoMatch {
		return NoMatchMessage
	}
	sources := strings.Join(answer.Sources, ", ")
	if layout == LayoutBlock {
		return fmt.Sprintf("Response:\n%s\n\nSources:\n%s", answer.Text, sources)
	}
	return fmt.Sprintf("Response: %s\n\nSources: %s", answer.Text, sources)
}

// Error renders any failure as the single user-facing error message.
func Error(err error) string {
	return fmt.Sprintf("An error occurred: %v", err)
}
