package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	return NewFingerprintFromTokens(Tokenize(text))
}

// NewFingerprintFromTokens creates a fingerprint from pre-tokenized terms.
// Returns nil for an empty token list.
func NewFingerprintFromTokens(tokens []string) *Fingerprint {
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase tokens, filtering short tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Terms returns the unique terms of the fingerprint.
func (f *Fingerprint) Terms() []string {
	if f == nil {
		return nil
	}
	terms := make([]string, 0, len(f.tokens))
	for token := range f.tokens {
		terms = append(terms, token)
	}
	return terms
}

// Restrict returns a new Fingerprint limited to terms present in the
// vocabulary set. Returns nil when no terms survive.
func (f *Fingerprint) Restrict(vocabulary map[string]struct{}) *Fingerprint {
	if f == nil || len(vocabulary) == 0 {
		return nil
	}
	kept := make(map[string]float64, len(f.tokens))
	var norm float64
	for token, count := range f.tokens {
		if _, ok := vocabulary[token]; !ok {
			continue
		}
		kept[token] = count
		norm += count * count
	}
	if len(kept) == 0 {
		return nil
	}
	return &Fingerprint{tokens: kept, norm: math.Sqrt(norm)}
}

// WithIDF returns a new Fingerprint with TF-IDF weights applied.
// Each term's count is multiplied by its IDF weight. The norm is recomputed.
// Terms absent from the IDF map retain their original weight.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	var norm float64
	for token, count := range f.tokens {
		w := count
		if idfVal, ok := idf[token]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &Fingerprint{
		tokens: weighted,
		norm:   math.Sqrt(norm),
	}
}

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil, has zero norm, or shares no terms.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Iterate the smaller vector; headings are much shorter than segments.
	if len(b.tokens) < len(a.tokens) {
		a, b = b, a
	}
	var dot float64
	for token, weight := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += weight * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a fingerprint's unique terms in the corpus.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// DocCount returns the number of documents registered in the corpus.
func (c *Corpus) DocCount() int {
	if c == nil {
		return 0
	}
	return c.docCount
}

// Vocabulary returns the set of terms seen across the corpus.
func (c *Corpus) Vocabulary() map[string]struct{} {
	if c == nil {
		return nil
	}
	vocab := make(map[string]struct{}, len(c.docFreq))
	for token := range c.docFreq {
		vocab[token] = struct{}{}
	}
	return vocab
}

// IDF computes smoothed inverse document frequency weights for every term in
// the corpus: idf(t) = ln((1 + n) / (1 + df(t))) + 1.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	for token, df := range c.docFreq {
		idf[token] = math.Log(float64(1+c.docCount)/float64(1+df)) + 1
	}
	return idf
}
