// Package textutil provides text processing utilities for term-frequency
// fingerprints, cosine similarity, and slug derivation.
//
// Fingerprints use term frequency vectors with precomputed norms. The
// tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters. Corpus tracks
// document frequencies for TF-IDF weighting.
package textutil
