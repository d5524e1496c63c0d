package summarizer

import (
	"math"
	"sort"
	"strings"

	"docqa/internal/tokenize"
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct{}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize returns a short summary by ranking sentences using token frequency.
// Selected sentences keep their order in text.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := tokenize.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}
	// Compute word frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokenize.Terms(sent) {
			freq[tok]++
		}
	}
	// Normalize frequencies
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		words := tokenize.Words(sent)
		sscore := 0.0
		for _, tok := range words {
			sscore += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(words)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	maxSentences = min(maxSentences, len(scores))
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}
