package retriever

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/domain"
)

func resultWith(candidates ...domain.Candidate) domain.RetrievalResult {
	return domain.RetrievalResult{Query: "q", Candidates: candidates}
}

// candidate uses an in-range similarity, so raw and clipped are equal.
func candidate(similarity, lexical float64) domain.Candidate {
	return domain.Candidate{RawSimilarity: similarity, Similarity: similarity, Lexical: lexical}
}

func TestScoreEmptyResultIsZero(t *testing.T) {
	s := NewConfidenceScorer()

	breakdown := s.Score(domain.RetrievalResult{Query: "q"})

	assert.Zero(t, breakdown.BestSimilarity)
	assert.Zero(t, breakdown.AvgSimilarity)
	assert.Zero(t, breakdown.Consistency)
	assert.Zero(t, breakdown.KeywordMatch)
	assert.Zero(t, breakdown.FinalScore)
}

func TestScoreSingleCandidate(t *testing.T) {
	s := NewConfidenceScorer()

	breakdown := s.Score(resultWith(candidate(0.8, 0.5)))

	assert.InDelta(t, 0.8, breakdown.BestSimilarity, 1e-9)
	assert.InDelta(t, 0.8, breakdown.AvgSimilarity, 1e-9)
	// One candidate has zero spread.
	assert.InDelta(t, 1.0, breakdown.Consistency, 1e-9)
	assert.InDelta(t, 0.5, breakdown.KeywordMatch, 1e-9)
	assert.InDelta(t, 0.5*0.8+0.3*0.8+0.1*1.0+0.1*0.5, breakdown.FinalScore, 1e-9)
}

func TestScoreBreakdownArithmetic(t *testing.T) {
	s := NewConfidenceScorer()

	breakdown := s.Score(resultWith(
		candidate(0.9, 1.0),
		candidate(0.7, 0.0),
	))

	assert.InDelta(t, 0.9, breakdown.BestSimilarity, 1e-9)
	assert.InDelta(t, 0.8, breakdown.AvgSimilarity, 1e-9)
	// Population stddev of {0.9, 0.7} is 0.1.
	assert.InDelta(t, 0.9, breakdown.Consistency, 1e-9)
	assert.InDelta(t, 0.5, breakdown.KeywordMatch, 1e-9)

	expected := 0.5*0.9 + 0.3*0.8 + 0.1*0.9 + 0.1*0.5
	assert.InDelta(t, expected, breakdown.FinalScore, 1e-9)
}

func TestScoreConsistencyDropsWithSpread(t *testing.T) {
	s := NewConfidenceScorer()

	tight := s.Score(resultWith(candidate(0.80, 0), candidate(0.78, 0), candidate(0.82, 0)))
	wide := s.Score(resultWith(candidate(0.95, 0), candidate(0.50, 0), candidate(0.10, 0)))

	assert.Greater(t, tight.Consistency, wide.Consistency)
}

func TestScoreMonotonicInBestSimilarity(t *testing.T) {
	s := NewConfidenceScorer()

	previous := -1.0
	for _, best := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		breakdown := s.Score(resultWith(candidate(best, 0.5)))
		require.Greater(t, breakdown.FinalScore, previous)
		previous = breakdown.FinalScore
	}
}

func TestScoreIsClipped(t *testing.T) {
	s := NewConfidenceScorer()

	// All components at their maximum still yield at most 1.
	breakdown := s.Score(resultWith(candidate(1.0, 1.0), candidate(1.0, 1.0)))

	assert.LessOrEqual(t, breakdown.FinalScore, 1.0)
	assert.GreaterOrEqual(t, breakdown.FinalScore, 0.0)
	assert.InDelta(t, 1.0, breakdown.FinalScore, 1e-9)
}

func TestScoreCustomWeights(t *testing.T) {
	s := NewConfidenceScorerWithWeights(1.0, 0, 0, 0)

	breakdown := s.Score(resultWith(candidate(0.6, 0.9), candidate(0.4, 0.1)))

	assert.InDelta(t, 0.6, breakdown.FinalScore, 1e-9)
}

func TestScoreNegativeWeightsFallBackToDefaults(t *testing.T) {
	s := NewConfidenceScorerWithWeights(-1, 0.3, 0.1, 0.1)
	def := NewConfidenceScorer()

	result := resultWith(candidate(0.7, 0.2), candidate(0.5, 0.4))
	assert.Equal(t, def.Score(result), s.Score(result))
}

func TestScoreUsesUnclippedSimilarities(t *testing.T) {
	s := NewConfidenceScorer()

	// Clipping collapses both similarities to 0; best, average and spread
	// must still reflect the scores the index reported.
	breakdown := s.Score(resultWith(
		domain.Candidate{RawSimilarity: -0.2, Similarity: 0},
		domain.Candidate{RawSimilarity: -0.4, Similarity: 0},
	))

	assert.InDelta(t, -0.2, breakdown.BestSimilarity, 1e-9)
	assert.InDelta(t, -0.3, breakdown.AvgSimilarity, 1e-9)
	// Population stddev of {-0.2, -0.4} is 0.1.
	assert.InDelta(t, 0.9, breakdown.Consistency, 1e-9)
	assert.Zero(t, breakdown.FinalScore)
}

func TestScoreConsistencyNeverNegative(t *testing.T) {
	s := NewConfidenceScorer()

	// Maximum spread for in-range similarities: stddev 0.5.
	breakdown := s.Score(resultWith(candidate(0.0, 0), candidate(1.0, 0)))

	assert.GreaterOrEqual(t, breakdown.Consistency, 0.0)
	assert.InDelta(t, 0.5, breakdown.Consistency, 1e-9)
	assert.False(t, math.IsNaN(breakdown.FinalScore))
}
