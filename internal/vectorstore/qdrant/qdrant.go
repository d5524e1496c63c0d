package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

const scrollPage = 256

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID maps a chunk id to the UUID Qdrant uses as point id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 409 when the collection already exists.
	status, err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
	if err != nil && status != http.StatusConflict {
		return err
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if err := vectorstore.Validate(s.dimension, chunks, vectors); err != nil {
		return err
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":      PointID(c.ChunkID),
			"vector":  vectors[i],
			"payload": payload(c),
		}
	}
	_, err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{Chunk: chunkFromPayload(r.Payload), Score: r.Score})
	}
	return results, nil
}

// Chunks scrolls through the whole collection.
func (s *Storage) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	var out []domain.Chunk
	var offset any
	for {
		req := map[string]any{"limit": scrollPage, "with_payload": true, "with_vector": false}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			out = append(out, chunkFromPayload(p.Payload))
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear(ctx context.Context) error {
	status, err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	return nil
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func payload(c domain.Chunk) map[string]any {
	return map[string]any{
		"document_id": c.DocumentID,
		"chunk_id":    c.ChunkID,
		"source":      c.Source,
		"page":        c.Page,
		"index":       c.Index,
		"text":        c.Text,
	}
}

func chunkFromPayload(p map[string]any) domain.Chunk {
	chunk := domain.Chunk{}
	if v, ok := p["document_id"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := p["chunk_id"].(string); ok {
		chunk.ChunkID = v
	}
	if v, ok := p["source"].(string); ok {
		chunk.Source = v
	}
	if v, ok := p["page"].(float64); ok {
		chunk.Page = int(v)
	}
	if v, ok := p["index"].(float64); ok {
		chunk.Index = int(v)
	}
	if v, ok := p["text"].(string); ok {
		chunk.Text = v
	}
	return chunk
}
