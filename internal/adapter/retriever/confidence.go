package retriever

import (
	"math"

	"kbase/internal/domain"
)

// Confidence blend weights. Best similarity dominates because a single
// strong match is the strongest signal that the evidence is on topic.
const (
	DefaultBestWeight        = 0.5
	DefaultAvgWeight         = 0.3
	DefaultConsistencyWeight = 0.1
	DefaultKeywordWeight     = 0.1
)

// similarityRange is the width of the normalized similarity interval,
// used to normalize the similarity spread for the consistency component.
const similarityRange = 1.0

// ConfidenceScorer derives a single scalar confidence from a retrieval
// result, with a per-component breakdown.
type ConfidenceScorer struct {
	bestWeight        float64
	avgWeight         float64
	consistencyWeight float64
	keywordWeight     float64
}

// NewConfidenceScorer creates a scorer with the default blend weights.
func NewConfidenceScorer() *ConfidenceScorer {
	return &ConfidenceScorer{
		bestWeight:        DefaultBestWeight,
		avgWeight:         DefaultAvgWeight,
		consistencyWeight: DefaultConsistencyWeight,
		keywordWeight:     DefaultKeywordWeight,
	}
}

// NewConfidenceScorerWithWeights creates a scorer with custom blend
// weights. Weights must be non-negative; they are used as given, not
// normalized, so the caller controls whether they sum to 1.
func NewConfidenceScorerWithWeights(best, avg, consistency, keyword float64) *ConfidenceScorer {
	s := NewConfidenceScorer()
	if best >= 0 && avg >= 0 && consistency >= 0 && keyword >= 0 {
		s.bestWeight = best
		s.avgWeight = avg
		s.consistencyWeight = consistency
		s.keywordWeight = keyword
	}
	return s
}

// Score computes the confidence breakdown for a retrieval result. An empty
// result scores zero on every component.
func (s *ConfidenceScorer) Score(result domain.RetrievalResult) domain.ConfidenceBreakdown {
	if result.Empty() {
		return domain.ConfidenceBreakdown{}
	}

	candidates := result.Candidates
	n := float64(len(candidates))

	// Best, average and spread all use the unclipped index similarity; only
	// the final blend is clipped.
	best := candidates[0].RawSimilarity
	sumSim := 0.0
	sumLex := 0.0
	for _, c := range candidates {
		if c.RawSimilarity > best {
			best = c.RawSimilarity
		}
		sumSim += c.RawSimilarity
		sumLex += c.Lexical
	}
	avg := sumSim / n
	keyword := sumLex / n

	// Consistency is high when the similarities cluster tightly: one minus
	// the population standard deviation normalized by the similarity range.
	var sumSq float64
	for _, c := range candidates {
		d := c.RawSimilarity - avg
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / n)
	consistency := clip01(1.0 - stddev/similarityRange)

	final := clip01(s.bestWeight*best +
		s.avgWeight*avg +
		s.consistencyWeight*consistency +
		s.keywordWeight*keyword)

	return domain.ConfidenceBreakdown{
		BestSimilarity: best,
		AvgSimilarity:  avg,
		Consistency:    consistency,
		KeywordMatch:   keyword,
		FinalScore:     final,
	}
}
