package memory

import (
	"context"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Upserting a chunk whose ChunkID is already stored replaces it.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   []vectorstore.Entry
	byID      map[string]int
}

func NewStorage() *Storage { return &Storage{byID: make(map[string]int)} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	s.byID = make(map[string]int)
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := vectorstore.Validate(s.dimension, chunks, vectors); err != nil {
		return err
	}
	for i := range chunks {
		entry := vectorstore.Entry{Chunk: chunks[i], Vector: vectors[i]}
		if j, ok := s.byID[chunks[i].ChunkID]; ok {
			s.entries[j] = entry
			continue
		}
		s.byID[chunks[i].ChunkID] = len(s.entries)
		s.entries = append(s.entries, entry)
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Rank(vector, s.entries, topK), nil
}

// Chunks returns every stored chunk in insertion order.
func (s *Storage) Chunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Chunk
	}
	return out, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.byID = make(map[string]int)
	return nil
}

func (s *Storage) Close() error { return nil }
