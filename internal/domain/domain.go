package domain

import "context"

// Page is one page of a paged document. Number is 1-based.
type Page struct {
	Number  int
	Content string
}

// Document represents a single source file loaded into the system.
// Pages is empty for plain text files.
type Document struct {
	ID      string
	Path    string
	Content string
	Pages   []Page
}

// Chunk is a retrievable fragment of a document.
// Page is 0 when the document has no pages.
type Chunk struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Answer is the outcome of a single question. NoMatch is set when the
// relevance policy rejected the retrieval and no generation call was made.
type Answer struct {
	Question string         `json:"question"`
	Text     string         `json:"text"`
	Sources  []string       `json:"sources"`
	Results  []SearchResult `json:"results"`
	NoMatch  bool           `json:"no_match"`
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Model() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts per call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
// Search returns results ordered by descending score.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Close() error
}

// ChunkLister is implemented by stores that can enumerate their chunks.
type ChunkLister interface {
	Chunks(ctx context.Context) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Generator sends a prompt to a chat model and returns the answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	IngestDocuments(ctx context.Context, paths []string) (summary string, err error)
	Retrieve(ctx context.Context, query string, topK int) ([]SearchResult, error)
	Ask(ctx context.Context, question string) (*Answer, error)
}
