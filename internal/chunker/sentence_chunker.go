package chunker

import (
	"strings"

	"docqa/internal/domain"
	"docqa/internal/tokenize"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, u := range units(document) {
		for _, text := range c.split(u.text) {
			chunks = append(chunks, newChunk(document, u.page, len(chunks), text))
		}
	}
	assignIDs(chunks)
	return chunks, nil
}

func (c *SentenceChunker) split(content string) []string {
	sentences := tokenize.Sentences(content)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var out []string
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		out = append(out, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return out
}
