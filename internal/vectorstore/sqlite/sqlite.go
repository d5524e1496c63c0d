// Package sqlite stores chunks and their vectors in a SQLite database inside
// the index directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// FileName is the database file created inside the index directory.
const FileName = "chunks.sqlite"

var schema = []string{`
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id    TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	source      TEXT NOT NULL,
	page        INTEGER NOT NULL DEFAULT 0,
	idx         INTEGER NOT NULL,
	text        TEXT NOT NULL,
	vector      BLOB NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`}

// Storage is a SQLite-backed vector store keyed by ChunkID.
type Storage struct {
	db *sql.DB
}

// NewStorage opens (or creates) the store under dir.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, FileName)+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('dimension', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(dimension))
	if err != nil {
		return fmt.Errorf("saving dimension: %w", err)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if err := vectorstore.Validate(dim, chunks, vectors); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, document_id, source, page, idx, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			source = excluded.source,
			page = excluded.page,
			idx = excluded.idx,
			text = excluded.text,
			vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ChunkID, c.DocumentID, c.Source, c.Page, c.Index, c.Text,
			vectorstore.EncodeVector(vectors[i])); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	return vectorstore.Rank(vector, entries, topK), nil
}

// Chunks returns every stored chunk ordered by source, page and index.
func (s *Storage) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, len(entries))
	for i, e := range entries {
		out[i] = e.Chunk
	}
	return out, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key = 'dimension'`); err != nil {
		return fmt.Errorf("clearing dimension: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) entries(ctx context.Context) ([]vectorstore.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, source, page, idx, text, vector
		FROM chunks ORDER BY source, page, idx`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []vectorstore.Entry
	for rows.Next() {
		var e vectorstore.Entry
		var blob []byte
		if err := rows.Scan(&e.Chunk.ChunkID, &e.Chunk.DocumentID, &e.Chunk.Source, &e.Chunk.Page,
			&e.Chunk.Index, &e.Chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		e.Vector = vectorstore.DecodeVector(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) dimension(ctx context.Context) (int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimension'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimension: %w", err)
	}
	return strconv.Atoi(raw)
}
