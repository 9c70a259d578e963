package domain

import "errors"

// Error taxonomy for the retrieval engine. Callers match these with
// errors.Is; adapters wrap them with context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidConfiguration marks bad chunking or top-k parameters.
	// Caller bug, never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyInput marks empty text submitted for embedding. Caller bug.
	ErrEmptyInput = errors.New("empty input text")

	// ErrEmbeddingUnavailable is surfaced after the embedding provider
	// failed and one retry did not recover.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGenerationUnavailable is surfaced after the generation provider
	// failed and one retry did not recover. The retrieval result and
	// confidence score remain valid when this is returned.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")

	// ErrIndexEmpty is returned by the raw index when no entries exist.
	// The retriever translates it to an empty result.
	ErrIndexEmpty = errors.New("vector index is empty")

	// ErrIndexUnavailable means the persisted index is missing or corrupt.
	// Never downgraded to "empty": an operator must re-ingest or restore.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
