package tfidf

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"

	"docqa/internal/tokenize"
)

// Embedder implements a simple TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
	prepared   bool
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Model returns the vocabulary fingerprint so an index can detect a stale vocabulary.
func (e *Embedder) Model() string { return "vocab-" + strconv.Itoa(e.dimension) }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize.Terms(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	N := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+N)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the TF-IDF embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize.Terms(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

type state struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// MarshalJSON saves the prepared vocabulary so a persisted index can embed queries later.
func (e *Embedder) MarshalJSON() ([]byte, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	return json.Marshal(state{Vocabulary: e.vocabulary, IDF: e.idf})
}

// UnmarshalJSON restores a vocabulary written by MarshalJSON.
func (e *Embedder) UnmarshalJSON(data []byte) error {
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if len(st.Vocabulary) != len(st.IDF) || len(st.IDF) == 0 {
		return errors.New("tfidf state is inconsistent")
	}
	e.vocabulary = st.Vocabulary
	e.idf = st.IDF
	e.dimension = len(st.IDF)
	e.prepared = true
	return nil
}
