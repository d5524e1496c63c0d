package chunker

import (
	"strconv"

	"docqa/internal/domain"
)

// unit is a span of a document chunked independently: one page of a PDF,
// or the whole content of a plain text file (page 0).
type unit struct {
	page int
	text string
}

func units(document domain.Document) []unit {
	if len(document.Pages) == 0 {
		return []unit{{text: document.Content}}
	}
	out := make([]unit, 0, len(document.Pages))
	for _, p := range document.Pages {
		out = append(out, unit{page: p.Number, text: p.Content})
	}
	return out
}

func newChunk(document domain.Document, page, seq int, text string) domain.Chunk {
	return domain.Chunk{
		DocumentID: document.ID,
		Source:     document.Path,
		Page:       page,
		Index:      seq,
		Text:       text,
	}
}

// assignIDs fills ChunkID with "source:page:n" for paged documents and
// "source:n" otherwise, n counting chunks within the page.
func assignIDs(chunks []domain.Chunk) {
	lastPage := -1
	perPage := 0
	for i := range chunks {
		if chunks[i].Page != lastPage {
			lastPage = chunks[i].Page
			perPage = 0
		}
		if chunks[i].Page > 0 {
			chunks[i].ChunkID = chunks[i].Source + ":" + strconv.Itoa(chunks[i].Page) + ":" + strconv.Itoa(perPage)
		} else {
			chunks[i].ChunkID = chunks[i].Source + ":" + strconv.Itoa(perPage)
		}
		perPage++
	}
}
