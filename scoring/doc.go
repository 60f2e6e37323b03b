// Package scoring computes the per-candidate relevance signals: field-weighted
// BM25, exact-match flags, cosine similarity against query embeddings, and the
// product metadata that feeds popularity and business-rule scores.
//
// BM25 here has no corpus statistics. IDF is fixed at 1.0 and the average
// document length comes from the candidate set being scored, so scores are
// only comparable within one Extract call.
package scoring
