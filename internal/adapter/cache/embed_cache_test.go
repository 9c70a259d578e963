package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/adapter/embedding"
	"kbase/internal/domain"
	"kbase/internal/port"
)

// countingEmbedder counts provider calls per text.
type countingEmbedder struct {
	inner port.Embedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls += len(texts)
	return e.inner.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) Dimension() int { return e.inner.Dimension() }

func (e *countingEmbedder) ModelName() string { return e.inner.ModelName() }

func TestCachedEmbedAvoidsRepeatCalls(t *testing.T) {
	counter := &countingEmbedder{inner: embedding.NewMockEmbedder(8)}
	e := NewCachedEmbedder(counter, NewEmbedCache(10))

	first, err := e.Embed(context.Background(), "the same question")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "the same question")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counter.calls)
}

func TestCachedEmbedBatchFetchesOnlyMisses(t *testing.T) {
	counter := &countingEmbedder{inner: embedding.NewMockEmbedder(8)}
	e := NewCachedEmbedder(counter, NewEmbedCache(10))

	_, err := e.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.NotNil(t, v, "vector %d", i)
	}

	// alpha was cached, so only beta and gamma hit the provider.
	assert.Equal(t, 3, counter.calls)

	direct, err := embedding.NewMockEmbedder(8).Embed(context.Background(), "beta")
	require.NoError(t, err)
	assert.Equal(t, direct, vectors[1])
}

func TestCachedEmbedBatchAllHits(t *testing.T) {
	counter := &countingEmbedder{inner: embedding.NewMockEmbedder(8)}
	e := NewCachedEmbedder(counter, NewEmbedCache(10))

	_, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	_, err = e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)

	assert.Equal(t, 2, counter.calls)
}

func TestCachedEmbedBatchRejectsEmptyInput(t *testing.T) {
	e := NewCachedEmbedder(embedding.NewMockEmbedder(8), NewEmbedCache(10))

	_, err := e.EmbedBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbedCache(2)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	_, ok := c.Get("a") // refresh a
	require.True(t, ok)
	c.Put("c", []float32{3}) // evicts b

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}
