// Package prompt assembles the question prompt from retrieved chunks.
package prompt

import (
	"strings"

	"docqa/internal/domain"
)

// Separator joins chunk texts in the context block.
const Separator = "\n\n---\n\n"

const template = `Answer the question based only on the following context:

{context}

---

Answer the question based on the above context: {question}`

// BuildContext joins the chunk texts of results in ranked order.
func BuildContext(results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, Separator)
}

// Build interpolates context and question into the fixed template.
// Neither value is escaped or truncated.
func Build(context, question string) string {
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(template)
}
