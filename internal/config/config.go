package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env" toml:"api_key_env"`
	Model             string `yaml:"model" toml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs" toml:"timeout_secs"`
	BatchSize         int    `yaml:"batch_size" toml:"batch_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute" toml:"requests_per_minute"`
	MaxRetries        int    `yaml:"max_retries" toml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type" toml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty" toml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type" toml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" toml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences" toml:"overlap_sentences"`
	ChunkSize         int    `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap" toml:"chunk_overlap"`
}

// VectorStoreConfig selects and configures the vector store implementation.
// Path is the index directory used by the file-backed stores.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	Path   string        `yaml:"path" toml:"path"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" toml:"url"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	Collection  string `yaml:"collection" toml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type" toml:"type"`
	MaxSentences int    `yaml:"max_sentences" toml:"max_sentences"`
}

// LLMConfig configures the chat-completion provider used for answers.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env" toml:"api_key_env"`
	Model       string   `yaml:"model" toml:"model"`
	Temperature *float64 `yaml:"temperature" toml:"temperature"`
	TimeoutSecs int      `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries  int      `yaml:"max_retries" toml:"max_retries"`
}

// ExtractionConfig configures the multimodal model used by the invoice extractor.
type ExtractionConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	Model       string `yaml:"model" toml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// ProfileConfig holds the presentation and retrieval policy of one question window.
// MinRelevance of 0 disables the "no matching results" short-circuit.
// Model and Temperature override the llm section when set; a Temperature of 0
// is an explicit value, not an absent one.
type ProfileConfig struct {
	Title        string   `yaml:"title" toml:"title"`
	Footer       string   `yaml:"footer" toml:"footer"`
	TopK         int      `yaml:"top_k" toml:"top_k"`
	MinRelevance float64  `yaml:"min_relevance" toml:"min_relevance"`
	SourceKey    string   `yaml:"source_key" toml:"source_key"`
	Layout       string   `yaml:"layout" toml:"layout"`
	ErrorDisplay string   `yaml:"error_display" toml:"error_display"`
	Model        string   `yaml:"model,omitempty" toml:"model,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
}

// LogConfig configures verbose logging.
type LogConfig struct {
	Verbose bool   `yaml:"verbose" toml:"verbose"`
	File    string `yaml:"file" toml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig           `yaml:"embedder" toml:"embedder"`
	Chunker     ChunkerConfig            `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig        `yaml:"vector_store" toml:"vector_store"`
	Summarizer  SummarizerConfig         `yaml:"summarizer" toml:"summarizer"`
	LLM         LLMConfig                `yaml:"llm" toml:"llm"`
	Extraction  ExtractionConfig         `yaml:"extraction" toml:"extraction"`
	Profile     string                   `yaml:"profile" toml:"profile"`
	Profiles    map[string]ProfileConfig `yaml:"profiles" toml:"profiles"`
	Log         LogConfig                `yaml:"log" toml:"log"`
}

// Profile names shipped with the default configuration.
const (
	ProfileNovel = "novel"
	ProfilePDF   = "pdf"
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			overrideByEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(data, cfg)
	} else {
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	overrideByEnv(cfg)
	return cfg, nil
}

// decodeYAML decodes data over cfg. Each profile in data is decoded over the
// shipped profile of the same name, so a file may change a single field.
func decodeYAML(data []byte, cfg *AppConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	var raw struct {
		Profiles map[string]yaml.Node `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	profiles := defaultConfig().Profiles
	for name, node := range raw.Profiles {
		p := profiles[name]
		if err := node.Decode(&p); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		profiles[name] = p
	}
	cfg.Profiles = profiles
	return nil
}

// decodeTOML is decodeYAML for TOML files.
func decodeTOML(data []byte, cfg *AppConfig) error {
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return err
	}
	var raw struct {
		Profiles map[string]toml.Primitive `toml:"profiles"`
	}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return err
	}
	profiles := defaultConfig().Profiles
	for name, prim := range raw.Profiles {
		p := profiles[name]
		if err := md.PrimitiveDecode(prim, &p); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		profiles[name] = p
	}
	cfg.Profiles = profiles
	return nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	overrideByEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ActiveProfile returns the profile selected by name, or by cfg.Profile when name is empty.
func (c *AppConfig) ActiveProfile(name string) (ProfileConfig, error) {
	if name == "" {
		name = c.Profile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{}},
		Chunker: ChunkerConfig{
			Type:              "character",
			SentencesPerChunk: 5,
			OverlapSentences:  1,
			ChunkSize:         800,
			ChunkOverlap:      80,
		},
		VectorStore: VectorStoreConfig{Type: "bolt", Path: "chroma"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
		LLM:         LLMConfig{},
		Extraction:  ExtractionConfig{},
		Profile:     ProfileNovel,
		Profiles: map[string]ProfileConfig{
			ProfileNovel: {
				Title:        "Welcome to Alice in Wonderland Chatbot!",
				Footer:       "Ask anything about the book",
				TopK:         3,
				MinRelevance: 0.7,
				SourceKey:    "source",
				Layout:       "inline",
				ErrorDisplay: "modal",
			},
			ProfilePDF: {
				Title:        "AI for PDFs",
				Footer:       "Ask anything about your PDFs",
				TopK:         5,
				SourceKey:    "id",
				Layout:       "block",
				ErrorDisplay: "inline",
				Model:        "gpt-4",
				Temperature:  floatPtr(0.7),
			},
		},
		Log: LogConfig{File: "docqa-debug.log"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 800
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "chroma"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-ada-002"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 2
		}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "docqa"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.Temperature == nil {
		cfg.LLM.Temperature = floatPtr(0.7)
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Extraction.BaseURL == "" {
		cfg.Extraction.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Extraction.APIKeyEnv == "" {
		cfg.Extraction.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Extraction.Model == "" {
		cfg.Extraction.Model = "gpt-4o"
	}
	if cfg.Extraction.TimeoutSecs == 0 {
		cfg.Extraction.TimeoutSecs = 180
	}
	if cfg.Profile == "" {
		cfg.Profile = ProfileNovel
	}
	for name, p := range cfg.Profiles {
		if p.TopK <= 0 {
			p.TopK = 3
		}
		if p.SourceKey == "" {
			p.SourceKey = "source"
		}
		if p.Layout == "" {
			p.Layout = "inline"
		}
		if p.ErrorDisplay == "" {
			p.ErrorDisplay = "modal"
		}
		cfg.Profiles[name] = p
	}
}

func floatPtr(v float64) *float64 { return &v }

func overrideByEnv(cfg *AppConfig) {
	cfg.Profile = getEnv("DOCQA_PROFILE", cfg.Profile)
	cfg.VectorStore.Path = getEnv("DOCQA_INDEX_DIR", cfg.VectorStore.Path)
	cfg.LLM.Model = getEnv("DOCQA_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("DOCQA_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.Extraction.Model = getEnv("DOCQA_EXTRACTION_MODEL", cfg.Extraction.Model)
	cfg.Log.Verbose = getEnvAsBool("DOCQA_VERBOSE", cfg.Log.Verbose)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
