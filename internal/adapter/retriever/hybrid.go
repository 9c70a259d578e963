// Package retriever ranks index entries for a query by fusing vector
// similarity with lexical keyword matching, and derives a confidence score
// from the ranked result.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"kbase/internal/adapter/analyzer"
	"kbase/internal/domain"
	"kbase/internal/port"
)

// Fusion defaults. Over-fetching pulls more candidates than requested so
// that lexical scoring can promote keyword-bearing chunks past marginally
// more similar but keyword-free ones before truncation.
const (
	DefaultOverfetchFactor  = 3
	DefaultSimilarityWeight = 0.7
	DefaultLexicalWeight    = 0.3
)

// HybridRetriever combines vector similarity search with lexical keyword
// scoring over an over-fetched candidate pool.
type HybridRetriever struct {
	index     port.VectorIndex
	embedder  port.Embedder
	keywords  *analyzer.KeywordExtractor
	overfetch int
	simWeight float64
	lexWeight float64
}

// Option configures the hybrid retriever.
type Option func(*HybridRetriever)

// WithOverfetchFactor sets how many times k candidates to pull from the
// index before re-ranking.
func WithOverfetchFactor(factor int) Option {
	return func(r *HybridRetriever) {
		if factor >= 1 {
			r.overfetch = factor
		}
	}
}

// WithWeights sets the similarity and lexical fusion weights.
func WithWeights(similarity, lexical float64) Option {
	return func(r *HybridRetriever) {
		if similarity >= 0 && lexical >= 0 && similarity+lexical > 0 {
			r.simWeight = similarity
			r.lexWeight = lexical
		}
	}
}

// NewHybridRetriever creates a hybrid retriever over the given index,
// embedder and keyword extractor.
func NewHybridRetriever(index port.VectorIndex, embedder port.Embedder, keywords *analyzer.KeywordExtractor, opts ...Option) *HybridRetriever {
	r := &HybridRetriever{
		index:     index,
		embedder:  embedder,
		keywords:  keywords,
		overfetch: DefaultOverfetchFactor,
		simWeight: DefaultSimilarityWeight,
		lexWeight: DefaultLexicalWeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the top-k candidates for the query, ranked by fused
// score. An empty index yields an empty result, not an error: callers
// interpret it as "no relevant evidence".
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k < 1 {
		return domain.RetrievalResult{}, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidConfiguration, k)
	}

	keywords := r.keywords.Extract(query)
	result := domain.RetrievalResult{Query: query, Keywords: keywords}

	expanded := r.keywords.ExpandQuery(query)
	queryVector, err := r.embedder.Embed(ctx, expanded)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(queryVector, r.overfetch*k)
	if err != nil {
		if errors.Is(err, domain.ErrIndexEmpty) {
			return result, nil
		}
		return domain.RetrievalResult{}, fmt.Errorf("index search failed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		similarity := clip01(hit.Score)
		lexical := r.keywords.LexicalScore(hit.Text, keywords)
		candidates = append(candidates, domain.Candidate{
			ChunkID:       hit.ChunkID,
			DocID:         hit.DocID,
			Index:         hit.Index,
			Source:        hit.Source,
			Text:          hit.Text,
			RawSimilarity: hit.Score,
			Similarity:    similarity,
			Lexical:       lexical,
			Fused:         r.simWeight*similarity + r.lexWeight*lexical,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Fused != candidates[j].Fused {
			return candidates[i].Fused > candidates[j].Fused
		}
		// Fused ties resolve on the unclipped index similarity: clipping can
		// collapse distinct negative scores to the same fused value.
		if candidates[i].RawSimilarity != candidates[j].RawSimilarity {
			return candidates[i].RawSimilarity > candidates[j].RawSimilarity
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	// The index guarantees unique chunk IDs; deduplicate anyway so a
	// violation upstream cannot produce duplicate citations.
	seen := make(map[string]struct{}, k)
	selected := make([]domain.Candidate, 0, k)
	for _, c := range candidates {
		if _, dup := seen[c.ChunkID]; dup {
			continue
		}
		seen[c.ChunkID] = struct{}{}
		selected = append(selected, c)
		if len(selected) == k {
			break
		}
	}

	result.Candidates = selected
	return result, nil
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
