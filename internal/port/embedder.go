package port

import "context"

// Embedder converts text into fixed-dimension vectors via an external
// provider. Implementations must reject empty input with
// domain.ErrEmptyInput and surface domain.ErrEmbeddingUnavailable after the
// single automatic retry is exhausted.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for the given texts, one vector per
	// input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
