// Package index describes a persisted index directory.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"docqa/internal/domain"
)

// ManifestFile is written next to the store files of an index.
const ManifestFile = "manifest.yaml"

// Manifest records how an index was built.
type Manifest struct {
	Embedder  string    `yaml:"embedder"`
	Model     string    `yaml:"model"`
	Dimension int       `yaml:"dimension"`
	Documents []string  `yaml:"documents"`
	Chunks    int       `yaml:"chunks"`
	Summary   string    `yaml:"summary"`
	BuiltAt   time.Time `yaml:"built_at"`
}

// Load reads the manifest in dir. A missing manifest yields (nil, nil).
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// Save writes m into dir, creating it as needed.
func Save(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// Check reports ErrIndexMismatch when the index was built with another embedder.
// The model is only compared for remote embedders, where it names the vector space.
func (m *Manifest) Check(embedder, model string) error {
	if m.Embedder != embedder {
		return fmt.Errorf("%w: built with %s embedder, configured %s", domain.ErrIndexMismatch, m.Embedder, embedder)
	}
	if embedder != "tfidf" && m.Model != model {
		return fmt.Errorf("%w: built with model %s, configured %s", domain.ErrIndexMismatch, m.Model, model)
	}
	return nil
}

// StateFile returns the path of the saved state of a local embedder.
func StateFile(dir, embedder string) string {
	return filepath.Join(dir, embedder+".json")
}

// SaveState writes the JSON state of a local embedder into dir.
func SaveState(dir, embedder string, state json.Marshaler) error {
	data, err := state.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(StateFile(dir, embedder), data, 0o644)
}

// LoadState restores the state of a local embedder. It reports false when no state was saved.
func LoadState(dir, embedder string, state json.Unmarshaler) (bool, error) {
	data, err := os.ReadFile(StateFile(dir, embedder))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := state.UnmarshalJSON(data); err != nil {
		return false, fmt.Errorf("decode %s state: %w", embedder, err)
	}
	return true, nil
}
