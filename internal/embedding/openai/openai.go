package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"docqa/internal/logger"
)

// Client is an OpenAI-compatible embeddings client implementing the Embedder interface.
type Client struct {
	api       openai.Client
	model     string
	batchSize int
	limiter   *rate.Limiter
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
// RequestsPerMinute of 0 disables client-side throttling.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Timeout           time.Duration
	BatchSize         int
	RequestsPerMinute int
	MaxRetries        int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-ada-002"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(cfg.MaxRetries),
		),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		limiter:   limiter,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Model returns the remote embedding model name.
func (c *Client) Model() string { return c.model }

// Prepare is not required for remote embedding. Dimension is set on the first embed.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in requests of at most BatchSize inputs,
// returning vectors in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		logger.Debug("embedding batch %d-%d of %d", start, end, len(texts))
		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(out) || len(d.Embedding) == 0 {
			return nil, errors.New("no embedding returned")
		}
		out[i] = d.Embedding
	}
	for _, v := range out {
		if v == nil {
			return nil, errors.New("no embedding returned")
		}
	}
	if c.dimension == 0 {
		c.dimension = len(out[0])
	}
	return out, nil
}
