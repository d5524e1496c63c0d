// Package vectorstore holds the ranking and encoding helpers shared by the
// store implementations in its subpackages.
package vectorstore

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"

	"docqa/internal/domain"
)

// DefaultTopK is used when a caller asks for zero or fewer results.
const DefaultTopK = 5

var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrLengthMismatch    = errors.New("chunks and vectors length mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Entry is a stored chunk together with its vector.
type Entry struct {
	Chunk  domain.Chunk `json:"chunk"`
	Vector []float64    `json:"vector"`
}

// Validate checks an upsert batch against the store dimension.
func Validate(dimension int, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return ErrDimensionMismatch
		}
	}
	return nil
}

// Cosine returns the cosine similarity of a and b. It is 0 when either vector is all zeros.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores entries against query and returns the topK best, highest first.
// Equal scores keep insertion order.
func Rank(query []float64, entries []Entry, topK int) []domain.SearchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}
	results := make([]domain.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = domain.SearchResult{Chunk: e.Chunk, Score: Cosine(query, e.Vector)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

// EncodeVector packs a vector as little-endian float64 values.
func EncodeVector(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// DecodeVector reverses EncodeVector.
func DecodeVector(data []byte) []float64 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float64, len(data)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return v
}
