package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/adapter/analyzer"
	"kbase/internal/adapter/embedding"
	"kbase/internal/domain"
	"kbase/internal/port"
)

// stubIndex returns canned hits so tests control similarity scores exactly.
type stubIndex struct {
	hits   []port.Hit
	err    error
	lastK  int
	lastQ  []float32
	closed bool
}

func (s *stubIndex) Add(entries []port.Entry) error { return nil }

func (s *stubIndex) Search(query []float32, k int) ([]port.Hit, error) {
	s.lastQ = query
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	if k > len(s.hits) {
		k = len(s.hits)
	}
	return s.hits[:k], nil
}

func (s *stubIndex) Remove(docID string) error { return nil }

func (s *stubIndex) Stats() (int, int, error) { return 1, len(s.hits), nil }

func (s *stubIndex) Close() error {
	s.closed = true
	return nil
}

func hit(chunkID, text string, score float64) port.Hit {
	return port.Hit{
		Entry: port.Entry{ChunkID: chunkID, DocID: "doc", Source: "doc.txt", Text: text},
		Score: score,
	}
}

func newRetriever(idx port.VectorIndex, opts ...Option) *HybridRetriever {
	return NewHybridRetriever(idx, embedding.NewMockEmbedder(16), analyzer.NewKeywordExtractor(3), opts...)
}

func TestRetrieveFusesScores(t *testing.T) {
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0000", "the invoice number is 42 but nothing else matches", 0.9),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "What is the invoice number for this order", 1)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)

	// Keywords: invoice, number, order. Text contains two of three.
	c := result.Candidates[0]
	assert.InDelta(t, 0.9, c.Similarity, 1e-9)
	assert.InDelta(t, 2.0/3.0, c.Lexical, 1e-9)
	assert.InDelta(t, 0.7*0.9+0.3*(2.0/3.0), c.Fused, 1e-9)
	assert.Equal(t, []string{"invoice", "number", "order"}, result.Keywords)
}

func TestRetrieveLexicalPromotesKeywordChunk(t *testing.T) {
	// A slightly less similar chunk that carries the keywords outranks a
	// more similar one that carries none.
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0000", "completely unrelated prose about gardening", 0.80),
		hit("doc:0001", "invoice number and order total are listed here", 0.75),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "What is the invoice number for this order", 2)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	assert.Equal(t, "doc:0001", result.Candidates[0].ChunkID)
	assert.Equal(t, "doc:0000", result.Candidates[1].ChunkID)
	assert.Greater(t, result.Candidates[0].Fused, result.Candidates[1].Fused)
}

func TestRetrieveOverfetchesBeforeTruncating(t *testing.T) {
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0000", "a", 0.9),
		hit("doc:0001", "b", 0.8),
		hit("doc:0002", "c", 0.7),
		hit("doc:0003", "d", 0.6),
		hit("doc:0004", "e", 0.5),
		hit("doc:0005", "f", 0.4),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "some question", 2)
	require.NoError(t, err)

	assert.Equal(t, 6, idx.lastK, "asks the index for factor*k candidates")
	assert.Len(t, result.Candidates, 2, "but returns only k")
}

func TestRetrieveClipsSimilarityBeforeFusion(t *testing.T) {
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0000", "no keywords here", -0.4),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "some question", 1)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)

	assert.Equal(t, 0.0, result.Candidates[0].Similarity)
	assert.Equal(t, 0.0, result.Candidates[0].Fused)
}

func TestRetrieveTieBreaksOnSimilarityThenChunkID(t *testing.T) {
	// Identical scores across the board resolve by ascending chunk ID.
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0002", "x", 0.5),
		hit("doc:0001", "x", 0.5),
		hit("doc:0003", "x", 0.5),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "zzz unmatched keywords", 3)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)

	assert.Equal(t, "doc:0001", result.Candidates[0].ChunkID)
	assert.Equal(t, "doc:0002", result.Candidates[1].ChunkID)
	assert.Equal(t, "doc:0003", result.Candidates[2].ChunkID)
}

func TestRetrieveEqualFusedPrefersHigherSimilarity(t *testing.T) {
	// With 0.5/0.5 weights both candidates fuse to exactly 0.5; the one
	// with the higher raw similarity must rank first even though its
	// chunk ID sorts later.
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0001", "alpha bravo charlie here", 0.25),
		hit("doc:0002", "alpha only here", 0.75),
	}}
	r := newRetriever(idx, WithWeights(0.5, 0.5))

	result, err := r.Retrieve(context.Background(), "alpha bravo charlie delta", 2)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	assert.Equal(t, "doc:0002", result.Candidates[0].ChunkID)
	assert.Equal(t, "doc:0001", result.Candidates[1].ChunkID)
	assert.Equal(t, result.Candidates[0].Fused, result.Candidates[1].Fused)
}

func TestRetrieveZeroFusedTieBreaksOnUnclippedSimilarity(t *testing.T) {
	// Negative index scores clip to 0 and no keywords match, so both
	// candidates fuse to exactly 0; the less negative index score must
	// rank first even though its chunk ID sorts later.
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0001", "x", -0.5),
		hit("doc:0002", "x", -0.2),
	}}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "zzz unmatched keywords", 2)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	assert.Equal(t, "doc:0002", result.Candidates[0].ChunkID)
	assert.InDelta(t, -0.2, result.Candidates[0].RawSimilarity, 1e-9)
	assert.Equal(t, 0.0, result.Candidates[0].Similarity)
	assert.Equal(t, 0.0, result.Candidates[0].Fused)
}

func TestRetrieveEmptyIndexYieldsEmptyResult(t *testing.T) {
	idx := &stubIndex{err: domain.ErrIndexEmpty}
	r := newRetriever(idx)

	result, err := r.Retrieve(context.Background(), "anything at all", 5)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, "anything at all", result.Query)
}

func TestRetrievePropagatesUnavailableIndex(t *testing.T) {
	idx := &stubIndex{err: domain.ErrIndexUnavailable}
	r := newRetriever(idx)

	_, err := r.Retrieve(context.Background(), "anything at all", 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRetrieveRejectsNonPositiveK(t *testing.T) {
	r := newRetriever(&stubIndex{})

	_, err := r.Retrieve(context.Background(), "a question", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestRetrieveSurfacesEmbedderFailure(t *testing.T) {
	idx := &stubIndex{hits: []port.Hit{hit("doc:0000", "x", 0.5)}}
	r := NewHybridRetriever(idx, failingEmbedder{}, analyzer.NewKeywordExtractor(3))

	_, err := r.Retrieve(context.Background(), "a question", 1)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieveIsDeterministic(t *testing.T) {
	idx := &stubIndex{hits: []port.Hit{
		hit("doc:0001", "invoice details", 0.6),
		hit("doc:0000", "order summary", 0.6),
		hit("doc:0002", "shipping notes", 0.6),
	}}
	r := newRetriever(idx)

	first, err := r.Retrieve(context.Background(), "invoice and order", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), "invoice and order", 3)
		require.NoError(t, err)
		assert.Equal(t, first.Candidates, again.Candidates)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("provider down: %w", domain.ErrEmbeddingUnavailable)
}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (failingEmbedder) Dimension() int { return 16 }

func (failingEmbedder) ModelName() string { return "failing" }
