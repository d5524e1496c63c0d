package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"docqa/internal/domain"
	"docqa/internal/format"
	"docqa/internal/index"
	"docqa/internal/loader"
	"docqa/internal/logger"
	"docqa/internal/prompt"
	"docqa/internal/tokenize"
)

// Options holds the retrieval policy of a profile and ingestion settings.
// MinRelevance of 0 disables the no-match short-circuit.
// IndexDir, when set, receives the manifest and local embedder state on ingest.
type Options struct {
	TopK                int
	MinRelevance        float64
	SourceKey           string
	SummaryMaxSentences int
	IndexDir            string
}

type RAGServiceImpl struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.VectorStore
	summarizer domain.Summarizer
	generator  domain.Generator
	opts       Options
}

func NewRAGService(chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, summarizer domain.Summarizer, generator domain.Generator, opts Options) *RAGServiceImpl {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SourceKey == "" {
		opts.SourceKey = format.SourceKeyPath
	}
	return &RAGServiceImpl{chunker: chunker, embedder: embedder, store: store, summarizer: summarizer, generator: generator, opts: opts}
}

// IngestDocuments loads, chunks and embeds the files matched by paths, replaces
// the store contents with them and returns a summary of the corpus.
func (s *RAGServiceImpl) IngestDocuments(ctx context.Context, paths []string) (string, error) {
	logger.Section("Ingest")
	documents, err := loader.Load(paths)
	if err != nil {
		return "", err
	}
	var allChunks []domain.Chunk
	var allTexts []string
	var allTextConcat strings.Builder
	sources := make([]string, 0, len(documents))
	for _, d := range documents {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return "", fmt.Errorf("chunking %s: %w", d.Path, err)
		}
		for _, ch := range chunks {
			allChunks = append(allChunks, ch)
			allTexts = append(allTexts, ch.Text)
		}
		allTextConcat.WriteString("\n")
		allTextConcat.WriteString(d.Content)
		sources = append(sources, d.Path)
	}
	if len(allChunks) == 0 {
		return "", fmt.Errorf("%w: documents contain no text", domain.ErrNoDocuments)
	}
	logger.Info("%d documents, %d chunks", len(documents), len(allChunks))

	if err := s.embedder.Prepare(allTexts); err != nil {
		return "", err
	}
	vectors, err := s.embedAll(ctx, allTexts)
	if err != nil {
		return "", err
	}
	dimension := len(vectors[0])

	if err := s.store.Clear(ctx); err != nil {
		return "", fmt.Errorf("clearing store: %w", err)
	}
	if err := s.store.Init(ctx, dimension); err != nil {
		return "", fmt.Errorf("initializing store: %w", err)
	}
	if err := s.store.Upsert(ctx, allChunks, vectors); err != nil {
		return "", fmt.Errorf("storing chunks: %w", err)
	}

	summary, err := s.summarizer.Summarize(allTextConcat.String(), s.opts.SummaryMaxSentences)
	if err != nil {
		return "", err
	}

	if s.opts.IndexDir != "" {
		if err := s.persist(sources, len(allChunks), dimension, summary); err != nil {
			return "", err
		}
	}
	return summary, nil
}

func (s *RAGServiceImpl) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	if b, ok := s.embedder.(domain.BatchEmbedder); ok {
		vectors, err := b.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks: %w", err)
		}
		return vectors, nil
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vec, err := s.embedder.Embed(ctx, texts[i])
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (s *RAGServiceImpl) persist(sources []string, chunks, dimension int, summary string) error {
	if state, ok := s.embedder.(json.Marshaler); ok {
		if err := index.SaveState(s.opts.IndexDir, s.embedder.Name(), state); err != nil {
			return fmt.Errorf("saving %s state: %w", s.embedder.Name(), err)
		}
	}
	m := &index.Manifest{
		Embedder:  s.embedder.Name(),
		Model:     s.embedder.Model(),
		Dimension: dimension,
		Documents: sources,
		Chunks:    chunks,
		Summary:   summary,
		BuiltAt:   time.Now().UTC(),
	}
	if err := index.Save(s.opts.IndexDir, m); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	logger.Info("index written to %s", s.opts.IndexDir)
	return nil
}

// Retrieve returns up to topK chunks ranked by descending similarity to query.
// When the embedding carries no signal it falls back to lexical overlap.
func (s *RAGServiceImpl) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.opts.TopK
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	// Detect zero vector (no tokens)
	zero := true
	for _, v := range vec {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		return s.lexicalSearch(ctx, query, topK, nil)
	}
	res, err := s.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return s.lexicalSearch(ctx, query, topK, res)
	}
	return res, nil
}

// Ask answers question from the retrieved context. A retrieval rejected by
// the relevance policy yields a NoMatch answer without calling the generator.
func (s *RAGServiceImpl) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuery
	}
	logger.Section("Ask")
	results, err := s.Retrieve(ctx, question, s.opts.TopK)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		logger.Debug("#%d %.4f %s", i+1, r.Score, r.Chunk.ChunkID)
	}
	answer := &domain.Answer{Question: question, Results: results}
	if s.opts.MinRelevance > 0 && (len(results) == 0 || results[0].Score < s.opts.MinRelevance) {
		logger.Info("no chunk reached relevance %.2f", s.opts.MinRelevance)
		answer.NoMatch = true
		answer.Text = format.NoMatchMessage
		return answer, nil
	}

	text, err := s.generator.Generate(ctx, prompt.Build(prompt.BuildContext(results), question))
	if err != nil {
		return nil, err
	}
	answer.Text = text
	answer.Sources = format.Sources(results, s.opts.SourceKey)
	return answer, nil
}

// lexicalSearch ranks stored chunks by Ochiai token overlap with query.
// Stores that cannot list chunks keep the vector results.
func (s *RAGServiceImpl) lexicalSearch(ctx context.Context, query string, topK int, fallback []domain.SearchResult) ([]domain.SearchResult, error) {
	lister, ok := s.store.(domain.ChunkLister)
	if !ok {
		return fallback, nil
	}
	chunks, err := lister.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	logger.Debug("lexical fallback over %d chunks", len(chunks))
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(chunks))
	for i, ch := range chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		p := scores[i]
		out = append(out, domain.SearchResult{Chunk: chunks[p.idx], Score: p.score})
	}
	return out, nil
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenize.Words(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai returns |A∩B| / sqrt(|A||B|) over the distinct tokens of query and text.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := tokenize.Words(text)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
