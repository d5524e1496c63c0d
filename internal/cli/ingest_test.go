package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/index"
	"docqa/internal/vectorstore/bolt"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
	"docqa/internal/vectorstore/sqlite"
)

func TestIngestCmd_RequiresPaths(t *testing.T) {
	cfgFile, _ := writeConfig(t, "tfidf")

	_, err := run(t, "--config", cfgFile, "ingest")

	assert.ErrorContains(t, err, "requires at least 1 arg(s)")
}

func TestIngestCmd_WritesManifest(t *testing.T) {
	cfgFile, indexDir := writeConfig(t, "tfidf")
	corpus := writeCorpus(t)

	out, err := run(t, "--config", cfgFile, "ingest", corpus)
	require.NoError(t, err)

	assert.Contains(t, out, "Indexed into "+indexDir)
	m, err := index.Load(indexDir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "tfidf", m.Embedder)
	assert.Equal(t, []string{corpus}, m.Documents)
	assert.Equal(t, 2, m.Chunks)
	assert.FileExists(t, filepath.Join(indexDir, bolt.FileName))
}

func TestIngestCmd_NoSupportedFiles(t *testing.T) {
	cfgFile, _ := writeConfig(t, "tfidf")

	_, err := run(t, "--config", cfgFile, "ingest", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestBuildEmbedder(t *testing.T) {
	emb, err := buildEmbedder(&config.AppConfig{Embedder: config.EmbedderConfig{Type: "tfidf"}})
	require.NoError(t, err)
	assert.IsType(t, &tfidf.Embedder{}, emb)

	_, err = buildEmbedder(&config.AppConfig{Embedder: config.EmbedderConfig{Type: "openai"}})
	assert.ErrorContains(t, err, "openai embedder config missing")

	_, err = buildEmbedder(&config.AppConfig{Embedder: config.EmbedderConfig{Type: "word2vec"}})
	assert.ErrorContains(t, err, "unknown embedder: word2vec")
}

func TestBuildChunker_Unknown(t *testing.T) {
	_, err := buildChunker(&config.AppConfig{Chunker: config.ChunkerConfig{Type: "paragraph"}})

	assert.ErrorContains(t, err, "unknown chunker: paragraph")
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		store config.VectorStoreConfig
		want  any
	}{
		{"memory", config.VectorStoreConfig{Type: "memory"}, &memory.Storage{}},
		{"bolt", config.VectorStoreConfig{Type: "bolt", Path: filepath.Join(dir, "bolt")}, &bolt.Storage{}},
		{"sqlite", config.VectorStoreConfig{Type: "sqlite", Path: filepath.Join(dir, "sqlite")}, &sqlite.Storage{}},
		{"qdrant", config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "c"}}, &qdrant.Storage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := openStore(&config.AppConfig{VectorStore: tt.store}, false)
			require.NoError(t, err)
			defer st.Close()
			assert.IsType(t, tt.want, st)
		})
	}

	st, err := openStore(&config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "bolt"}}, true)
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, st)

	_, err = openStore(&config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "chroma"}}, false)
	assert.ErrorContains(t, err, "unknown vector store: chroma")
}
