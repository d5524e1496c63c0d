package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/domain"
)

func results(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Chunk: domain.Chunk{Text: t}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestBuildContext_JoinsInRankedOrder(t *testing.T) {
	got := BuildContext(results("first", "second", "third"))

	assert.Equal(t, "first\n\n---\n\nsecond\n\n---\n\nthird", got)
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
}

func TestBuild(t *testing.T) {
	got := Build("Alice was beginning to get very tired.", "Who is tired?")

	want := "Answer the question based only on the following context:\n\n" +
		"Alice was beginning to get very tired.\n\n---\n\n" +
		"Answer the question based on the above context: Who is tired?"
	assert.Equal(t, want, got)
}

func TestBuild_PlaceholdersInValuesAreKept(t *testing.T) {
	got := Build("the text says {question}", "what is {context}?")

	assert.Contains(t, got, "the text says {question}")
	assert.Contains(t, got, "context: what is {context}?")
}
