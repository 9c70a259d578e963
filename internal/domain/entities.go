package domain

import "time"

// Document is an uploaded source file. The engine only reads its extracted
// text and identifier; file bytes and metadata live with the caller.
type Document struct {
	ID          string
	Filename    string
	Size        int64
	ContentType string
	UploadedAt  time.Time
	Processed   bool
}

// Chunk is the atomic retrievable unit: a fixed-size window of a document's
// text. The ID is derived from the owning document ID and the zero-based
// sequence index, so chunk identity is stable across runs.
type Chunk struct {
	ID      string
	DocID   string
	Index   int
	Text    string
	Overlap int
}

// Candidate is a per-query pairing of an index entry with its scores.
// RawSimilarity is the index similarity exactly as the search reported it;
// Similarity is the same value clipped to [0,1] for fusion; Lexical is the
// fraction of query keywords present in the chunk text; Fused is the
// weighted blend used for ranking.
type Candidate struct {
	ChunkID       string
	DocID         string
	Index         int
	Source        string
	Text          string
	RawSimilarity float64
	Similarity    float64
	Lexical       float64
	Fused         float64
}

// RetrievalResult is the ranked, deduplicated candidate set for one query.
type RetrievalResult struct {
	Query      string
	Keywords   []string
	Candidates []Candidate
}

// Empty reports whether retrieval found no evidence.
func (r RetrievalResult) Empty() bool {
	return len(r.Candidates) == 0
}

// ConfidenceBreakdown holds the components behind a confidence score.
type ConfidenceBreakdown struct {
	BestSimilarity float64 `json:"best_similarity"`
	AvgSimilarity  float64 `json:"avg_similarity"`
	Consistency    float64 `json:"consistency"`
	KeywordMatch   float64 `json:"keyword_match"`
	FinalScore     float64 `json:"final_score"`
}

// SourceInfo attributes part of an answer to a chunk of a document.
type SourceInfo struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Preview    string  `json:"content_preview"`
	Similarity float64 `json:"similarity_score"`
}

// Answer is the end-to-end result of one query.
type Answer struct {
	Text             string              `json:"answer"`
	Sources          []SourceInfo        `json:"sources"`
	Confidence       float64             `json:"confidence_score"`
	Breakdown        ConfidenceBreakdown `json:"confidence_breakdown"`
	SimilarityScores []float64           `json:"similarity_scores"`
}

// Stats summarizes index contents.
type Stats struct {
	TotalDocs    int
	TotalEntries int
}
