package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, batchSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	c, err := NewClient(Config{
		BaseURL:   srv.URL + "/",
		APIKeyEnv: "TEST_EMBED_KEY",
		Model:     "text-embedding-ada-002",
		BatchSize: batchSize,
	})
	require.NoError(t, err)
	return c
}

// echoLengths answers with one 2-dimensional vector per input: [len(input), index].
func echoLengths(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), float64(i)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")

	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})

	assert.ErrorContains(t, err, "TEST_EMBED_KEY")
}

func TestEmbed_SetsDimension(t *testing.T) {
	var calls int32
	c := newTestClient(t, echoLengths(&calls), 8)

	vec, err := c.Embed(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 0}, vec)
	assert.Equal(t, 2, c.Dimension())
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, "text-embedding-ada-002", c.Model())
}

func TestEmbedBatch_SplitsAndKeepsOrder(t *testing.T) {
	var calls int32
	c := newTestClient(t, echoLengths(&calls), 2)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, float64(i+1), v[0])
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmbed_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}, 8)

	_, err := c.Embed(context.Background(), "alice")

	assert.ErrorContains(t, err, "openai embeddings failed")
}

func TestEmbed_MissingVectors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m"}`))
	}, 8)

	_, err := c.Embed(context.Background(), "alice")

	assert.Error(t, err)
}
