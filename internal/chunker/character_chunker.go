package chunker

import (
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// CharacterChunker splits text into chunks of at most size runes, preferring
// paragraph, then line, then word boundaries. Consecutive chunks share up to
// overlap runes of trailing context.
type CharacterChunker struct {
	size       int
	overlap    int
	separators []string
}

// NewCharacterChunker creates a chunker with the given size and overlap in runes.
func NewCharacterChunker(size, overlap int) *CharacterChunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &CharacterChunker{size: size, overlap: overlap, separators: defaultSeparators}
}

// Chunk splits every page (or the whole content) of document.
func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, u := range units(document) {
		if strings.TrimSpace(u.text) == "" {
			continue
		}
		for _, text := range c.split(u.text, c.separators) {
			chunks = append(chunks, newChunk(document, u.page, len(chunks), text))
		}
	}
	assignIDs(chunks)
	return chunks, nil
}

func (c *CharacterChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, fitting []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) <= c.size {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, c.merge(fitting, sep)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, rest)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, c.merge(fitting, sep)...)
	}
	return out
}

// merge packs pieces into chunks no longer than size, carrying at most
// overlap runes of the previous chunk into the next one.
func (c *CharacterChunker) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)
	var out, window []string
	total := 0
	for _, p := range pieces {
		pl := utf8.RuneCountInString(p)
		joined := pl
		if len(window) > 0 {
			joined += sepLen
		}
		if len(window) > 0 && total+joined > c.size {
			if text := strings.TrimSpace(strings.Join(window, sep)); text != "" {
				out = append(out, text)
			}
			for len(window) > 0 && (total > c.overlap || total+sepLen+pl > c.size) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, p)
		total += pl
	}
	if text := strings.TrimSpace(strings.Join(window, sep)); text != "" {
		out = append(out, text)
	}
	return out
}
