package embedding

import (
	"context"
	"fmt"
	"strings"

	"kbase/internal/domain"
)

// MockEmbedder produces deterministic vectors without a network call.
// Texts sharing words produce similar vectors, which is enough for
// retrieval tests to rank on.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// Embed generates a deterministic embedding for the text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates deterministic embeddings, one per input.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrEmptyInput)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrEmptyInput, i)
		}
		vec := make([]float32, e.dimension)
		// Bag-of-words hashed into the vector: shared words move texts
		// closer in cosine space.
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := 0
			for _, r := range word {
				h = h*31 + int(r)
			}
			if h < 0 {
				h = -h
			}
			vec[h%e.dimension]++
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimension returns the embedding vector dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the mock model identifier.
func (e *MockEmbedder) ModelName() string {
	return "mock"
}
