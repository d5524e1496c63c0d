package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/extraction"
	"docqa/internal/index"
	llmopenai "docqa/internal/llm/openai"
	"docqa/internal/logger"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore/bolt"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
	"docqa/internal/vectorstore/sqlite"
)

// Factories replaced in tests.
var (
	newGenerator = buildGenerator
	newExtractor = buildExtractor
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		o := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:           o.BaseURL,
			APIKeyEnv:         o.APIKeyEnv,
			Model:             o.Model,
			Timeout:           seconds(o.TimeoutSecs),
			BatchSize:         o.BatchSize,
			RequestsPerMinute: o.RequestsPerMinute,
			MaxRetries:        o.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildChunker(cfg *config.AppConfig) (domain.Chunker, error) {
	switch cfg.Chunker.Type {
	case "sentence":
		return chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences), nil
	case "character", "":
		return chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
}

// openStore opens the configured store. inMemory forces the memory store.
func openStore(cfg *config.AppConfig, inMemory bool) (domain.VectorStore, error) {
	if inMemory {
		return memory.NewStorage(), nil
	}
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "bolt", "":
		return bolt.NewStorage(cfg.VectorStore.Path)
	case "sqlite":
		return sqlite.NewStorage(cfg.VectorStore.Path)
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, errors.New("qdrant config missing")
		}
		apiKey := ""
		if q.APIKeyEnv != "" {
			apiKey = os.Getenv(q.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     apiKey,
			Collection: q.Collection,
			Timeout:    seconds(q.TimeoutSecs),
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func buildSummarizer(cfg *config.AppConfig) (domain.Summarizer, error) {
	switch cfg.Summarizer.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
}

// generatorSettings resolves the chat model and temperature. Profile values
// override the llm section when set.
func generatorSettings(cfg *config.AppConfig, p config.ProfileConfig) (string, float64) {
	model, temperature := cfg.LLM.Model, 0.7
	if cfg.LLM.Temperature != nil {
		temperature = *cfg.LLM.Temperature
	}
	if p.Model != "" {
		model = p.Model
	}
	if p.Temperature != nil {
		temperature = *p.Temperature
	}
	return model, temperature
}

// buildGenerator creates the chat model client.
func buildGenerator(cfg *config.AppConfig, p config.ProfileConfig) (domain.Generator, error) {
	model, temperature := generatorSettings(cfg, p)
	g, err := llmopenai.NewGenerator(llmopenai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       model,
		Temperature: temperature,
		Timeout:     seconds(cfg.LLM.TimeoutSecs),
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}
	return g, nil
}

type invoiceExtractor interface {
	Extract(ctx context.Context, path string) (*extraction.Invoice, error)
}

func buildExtractor(cfg *config.AppConfig) (invoiceExtractor, error) {
	e, err := extraction.NewExtractor(extraction.Config{
		BaseURL:   cfg.Extraction.BaseURL,
		APIKeyEnv: cfg.Extraction.APIKeyEnv,
		Model:     cfg.Extraction.Model,
		Timeout:   seconds(cfg.Extraction.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("extractor init failed: %w", err)
	}
	return e, nil
}

func serviceOptions(cfg *config.AppConfig, p config.ProfileConfig, indexDir string) service.Options {
	return service.Options{
		TopK:                p.TopK,
		MinRelevance:        p.MinRelevance,
		SourceKey:           p.SourceKey,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		IndexDir:            indexDir,
	}
}

// app bundles a wired service with the resources it holds open.
type app struct {
	service  *service.RAGServiceImpl
	embedder domain.Embedder
	store    domain.VectorStore
	summary  string
}

func (a *app) Close() error { return a.store.Close() }

// newApp wires every component. withGenerator is false for commands that
// never answer questions, so they do not need LLM credentials.
func newApp(cfg *config.AppConfig, p config.ProfileConfig, inMemory, withGenerator bool) (*app, error) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	ch, err := buildChunker(cfg)
	if err != nil {
		return nil, err
	}
	sum, err := buildSummarizer(cfg)
	if err != nil {
		return nil, err
	}
	var gen domain.Generator
	if withGenerator {
		if gen, err = newGenerator(cfg, p); err != nil {
			return nil, err
		}
	}
	st, err := openStore(cfg, inMemory)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	indexDir := cfg.VectorStore.Path
	if inMemory {
		indexDir = ""
	}
	return &app{
		service:  service.NewRAGService(ch, emb, st, sum, gen, serviceOptions(cfg, p, indexDir)),
		embedder: emb,
		store:    st,
	}, nil
}

// openIndex wires the app over the persisted index and checks that it was
// built with the configured embedder.
func openIndex(cfg *config.AppConfig, p config.ProfileConfig) (*app, error) {
	dir := cfg.VectorStore.Path
	m, err := index.Load(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: no index at %s, run docqa ingest first", domain.ErrNoDocuments, dir)
	}
	a, err := newApp(cfg, p, false, true)
	if err != nil {
		return nil, err
	}
	emb := a.embedder
	if err := m.Check(emb.Name(), emb.Model()); err != nil {
		_ = a.Close()
		return nil, err
	}
	if state, ok := emb.(json.Unmarshaler); ok {
		found, err := index.LoadState(dir, emb.Name(), state)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("loading %s state: %w", emb.Name(), err)
		}
		if !found {
			_ = a.Close()
			return nil, fmt.Errorf("%w: %s state missing in %s", domain.ErrIndexMismatch, emb.Name(), dir)
		}
	}
	logger.Info("index %s: %d documents, %d chunks, %s/%s", dir, len(m.Documents), m.Chunks, m.Embedder, m.Model)
	a.summary = m.Summary
	return a, nil
}
