package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/pdftest"
)

type fakeAPI struct {
	mu       sync.Mutex
	content  string
	uploaded string
	chatBody map[string]any
	deleted  []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/files":
		body, _ := io.ReadAll(r.Body)
		f.uploaded = string(body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "file-abc", "object": "file", "bytes": len(body), "created_at": 0,
			"filename": "invoice.pdf", "purpose": "user_data", "status": "processed",
		})
	case r.Method == http.MethodPost && r.URL.Path == "/chat/completions":
		_ = json.NewDecoder(r.Body).Decode(&f.chatBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 0, "model": "gpt-4o",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": f.content},
			}},
		})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/files/"):
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		f.deleted = append(f.deleted, id)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "object": "file", "deleted": true})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}
}

func newTestExtractor(t *testing.T, f *fakeAPI) *Extractor {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EXTRACT_KEY", "sk-test")

	e, err := NewExtractor(Config{BaseURL: srv.URL + "/", APIKeyEnv: "TEST_EXTRACT_KEY", Model: "gpt-4o"})
	require.NoError(t, err)
	return e
}

func TestExtract_UploadsAsksAndCleansUp(t *testing.T) {
	f := &fakeAPI{content: validInvoice}
	e := newTestExtractor(t, f)
	path := pdftest.Write(t, "invoice.pdf", pdftest.Page{Text: "Total 1234.50"})

	inv, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, inv.Total.TotalValue)
	assert.InDelta(t, 1234.5, *inv.Total.TotalValue, 1e-9)
	assert.Contains(t, f.uploaded, "user_data")
	assert.Contains(t, f.uploaded, "%PDF-1.4")
	assert.Equal(t, []string{"file-abc"}, f.deleted)

	assert.Equal(t, "gpt-4o", f.chatBody["model"])
	format := f.chatBody["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "invoice", schema["name"])

	messages := f.chatBody["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	file := parts[0].(map[string]any)["file"].(map[string]any)
	assert.Equal(t, "file-abc", file["file_id"])
	assert.Equal(t, Prompt, parts[1].(map[string]any)["text"])
}

func TestExtract_InvalidResponseStillDeletesUpload(t *testing.T) {
	f := &fakeAPI{content: `{"total": {}}`}
	e := newTestExtractor(t, f)
	path := pdftest.Write(t, "invoice.pdf", pdftest.Page{Text: "Total"})

	_, err := e.Extract(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrInvalidExtraction)
	assert.Equal(t, []string{"file-abc"}, f.deleted)
}

func TestExtract_MissingFile(t *testing.T) {
	e := newTestExtractor(t, &fakeAPI{})

	_, err := e.Extract(context.Background(), "does-not-exist.pdf")

	assert.Error(t, err)
}
