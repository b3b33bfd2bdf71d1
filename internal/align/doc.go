// Package align maps free-text summary headings to transcript time spans.
//
// Build constructs a TF-IDF weighted vector space from segment texts, with
// english stop-words removed and the vocabulary derived strictly from the
// segment corpus. Query computes cosine similarity between a heading and
// every segment, returning the top-k ranked matches. The engine is stateless
// given its inputs and fully deterministic.
package align
