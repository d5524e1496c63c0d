// Package bolt persists chunks and their vectors in a bbolt file inside the
// index directory and ranks them by brute-force cosine similarity.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// FileName is the database file created inside the index directory.
const FileName = "chunks.db"

var (
	bucketChunks = []byte("chunks")
	bucketMeta   = []byte("meta")
	keyDimension = []byte("dimension")
)

// Storage is a bbolt-backed vector store keyed by ChunkID.
type Storage struct {
	db *bbolt.DB
}

// NewStorage opens (or creates) the store under dir.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dir, FileName), 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", FileName, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketChunks); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(dimension))
		return tx.Bucket(bucketMeta).Put(keyDimension, buf)
	})
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := vectorstore.Validate(dimension(tx), chunks, vectors); err != nil {
			return err
		}
		b := tx.Bucket(bucketChunks)
		for i := range chunks {
			data, err := json.Marshal(vectorstore.Entry{Chunk: chunks[i], Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(chunks[i].ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	return vectorstore.Rank(vector, entries, topK), nil
}

// Chunks returns every stored chunk ordered by ChunkID.
func (s *Storage) Chunks(_ context.Context) ([]domain.Chunk, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, len(entries))
	for i, e := range entries {
		out[i] = e.Chunk
	}
	return out, nil
}

func (s *Storage) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketChunks); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketChunks); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete(keyDimension)
	})
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) entries() ([]vectorstore.Entry, error) {
	var out []vectorstore.Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(_, v []byte) error {
			var e vectorstore.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dimension(tx *bbolt.Tx) int {
	raw := tx.Bucket(bucketMeta).Get(keyDimension)
	if len(raw) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw))
}
