package textclass

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// VectorizerConfig controls vocabulary selection.
type VectorizerConfig struct {
	MaxFeatures int
	NGramMin    int
	NGramMax    int
	// MinDF is an absolute document count.
	MinDF int
	// MaxDF is a fraction of the corpus; terms seen in more documents are dropped.
	MaxDF float64
}

// DefaultVectorizerConfig returns the settings used by the trainer and the
// fallback model.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures: 5000,
		NGramMin:    1,
		NGramMax:    2,
		MinDF:       1,
		MaxDF:       0.9,
	}
}

func (c VectorizerConfig) withDefaults() VectorizerConfig {
	d := DefaultVectorizerConfig()
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = d.MaxFeatures
	}
	if c.NGramMin <= 0 {
		c.NGramMin = d.NGramMin
	}
	if c.NGramMax < c.NGramMin {
		c.NGramMax = c.NGramMin
	}
	if c.MinDF <= 0 {
		c.MinDF = d.MinDF
	}
	if c.MaxDF <= 0 || c.MaxDF > 1 {
		c.MaxDF = d.MaxDF
	}
	return c
}

// Vocabulary is a fitted term index with its IDF table. It is never
// modified after Fit returns.
type Vocabulary struct {
	Terms    map[string]int `json:"terms"`
	IDF      []float64      `json:"idf"`
	NGramMin int            `json:"ngram_min"`
	NGramMax int            `json:"ngram_max"`
}

// Size is the feature dimension.
func (v *Vocabulary) Size() int {
	return len(v.IDF)
}

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no non-zero entries.
func (x Vector) IsZero() bool {
	return len(x.Indices) == 0
}

// Dense expands the vector, mostly useful in tests.
func (x Vector) Dense() []float64 {
	out := make([]float64, x.Dim)
	for k, idx := range x.Indices {
		out[idx] = x.Values[k]
	}
	return out
}

type termStat struct {
	count int
	docs  int
	first int
}

// Fit builds a vocabulary and smoothed IDF table from a tokenized corpus.
func Fit(corpus [][]string, cfg VectorizerConfig) (*Vocabulary, error) {
	cfg = cfg.withDefaults()
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: corpus has no documents", ErrEmptyVocabulary)
	}

	// 1. Count term frequency and document frequency
	stats := make(map[string]*termStat)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range ngrams(doc, cfg.NGramMin, cfg.NGramMax) {
			st, ok := stats[term]
			if !ok {
				st = &termStat{first: len(stats)}
				stats[term] = st
			}
			st.count++
			if !seen[term] {
				seen[term] = true
				st.docs++
			}
		}
	}

	// 2. Prune by document frequency
	maxDocs := cfg.MaxDF * float64(len(corpus))
	candidates := make([]string, 0, len(stats))
	for term, st := range stats {
		if st.docs < cfg.MinDF || float64(st.docs) > maxDocs {
			continue
		}
		candidates = append(candidates, term)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no terms remain after pruning", ErrEmptyVocabulary)
	}

	// 3. Keep the most frequent terms
	if len(candidates) > cfg.MaxFeatures {
		sort.Slice(candidates, func(i, j int) bool {
			a, b := stats[candidates[i]], stats[candidates[j]]
			if a.count != b.count {
				return a.count > b.count
			}
			return a.first < b.first
		})
		candidates = candidates[:cfg.MaxFeatures]
	}

	// 4. Assign indices in lexical order and compute IDF
	sort.Strings(candidates)
	n := float64(len(corpus))
	vocab := &Vocabulary{
		Terms:    make(map[string]int, len(candidates)),
		IDF:      make([]float64, len(candidates)),
		NGramMin: cfg.NGramMin,
		NGramMax: cfg.NGramMax,
	}
	for i, term := range candidates {
		vocab.Terms[term] = i
		// idf = ln((1 + n) / (1 + df)) + 1
		vocab.IDF[i] = math.Log((1+n)/(1+float64(stats[term].docs))) + 1
	}

	return vocab, nil
}

// Transform maps tokens to an L2-normalised TF-IDF vector. Terms outside
// the vocabulary are ignored.
func (v *Vocabulary) Transform(tokens []string) Vector {
	x := Vector{Dim: v.Size()}

	counts := make(map[int]float64)
	for _, term := range ngrams(tokens, v.NGramMin, v.NGramMax) {
		if idx, ok := v.Terms[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return x
	}

	x.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		x.Indices = append(x.Indices, idx)
	}
	sort.Ints(x.Indices)

	x.Values = make([]float64, len(x.Indices))
	var norm float64
	for k, idx := range x.Indices {
		val := counts[idx] * v.IDF[idx]
		x.Values[k] = val
		norm += val * val
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range x.Values {
			x.Values[k] /= norm
		}
	}

	return x
}

// ngrams drops stop words and emits all n-grams for n in [lo, hi],
// shortest first.
func ngrams(tokens []string, lo, hi int) []string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopWords[t] {
			words = append(words, t)
		}
	}

	var out []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(words); i++ {
			if n == 1 {
				out = append(out, words[i])
				continue
			}
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}
