package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/domain"
)

type fakeGenerator struct {
	prompts []string
	answer  string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, nil
}

// useGenerator replaces the chat model for the duration of the test.
func useGenerator(t *testing.T, g domain.Generator) {
	t.Helper()
	orig := newGenerator
	newGenerator = func(*config.AppConfig, config.ProfileConfig) (domain.Generator, error) { return g, nil }
	t.Cleanup(func() { newGenerator = orig })
}

// writeConfig writes a tfidf + bolt config rooted in a temp dir and returns
// its path and the index directory.
func writeConfig(t *testing.T, embedder string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "index")
	data := "embedder:\n  type: " + embedder + "\n" +
		"chunker:\n  type: sentence\n  sentences_per_chunk: 2\n  overlap_sentences: 0\n" +
		"vector_store:\n  type: bolt\n  path: " + indexDir + "\n" +
		"log:\n  file: \"\"\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path, indexDir
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	text := "Alice was beginning to get very tired of sitting by her sister on the bank. " +
		"Suddenly a White Rabbit with pink eyes ran close by her. " +
		"The Rabbit took a watch out of its waistcoat pocket. " +
		"Alice ran across the field after it."
	path := filepath.Join(dir, "alice.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	profileName, verbose, queryJSON, extractAlso = "", false, false, nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docqa", rootCmd.Use)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))

	flag := rootCmd.PersistentFlags().Lookup("profile")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"ask", "query", "ingest", "extract"})
}

func TestRootCmd_UnknownProfile(t *testing.T) {
	cfgFile, _ := writeConfig(t, "tfidf")

	_, err := run(t, "--config", cfgFile, "--profile", "poetry", "query", "who?")

	assert.ErrorContains(t, err, `unknown profile "poetry"`)
}

func TestLoadConfig_SelectsProfile(t *testing.T) {
	cfgFile, indexDir := writeConfig(t, "tfidf")
	useGenerator(t, &fakeGenerator{})
	corpus := writeCorpus(t)

	_, err := run(t, "--config", cfgFile, "-p", "pdf", "ingest", corpus)
	require.NoError(t, err)

	assert.Equal(t, indexDir, cfg.VectorStore.Path)
	assert.Equal(t, 5, profile.TopK)
	assert.Equal(t, "block", profile.Layout)
}
