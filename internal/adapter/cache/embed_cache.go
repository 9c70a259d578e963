// Package cache memoizes embeddings so repeated texts, like the same
// question asked twice, do not hit the provider again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"kbase/internal/port"
)

// EmbedCache is an LRU cache of embedding vectors keyed by text content.
// Embeddings are content-addressed, so entries never go stale.
type EmbedCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	order   []string
	maxSize int
}

// NewEmbedCache creates a cache holding at most maxSize vectors.
func NewEmbedCache(maxSize int) *EmbedCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &EmbedCache{
		entries: make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:16])
}

// Get returns the cached vector for the text, if present.
func (c *EmbedCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text)
	vec, ok := c.entries[key]
	if ok {
		c.moveToEnd(key)
	}
	return vec, ok
}

// Put stores the vector for the text, evicting the least recently used
// entry when full.
func (c *EmbedCache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = vector
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = vector
	c.order = append(c.order, key)
}

// Size returns the number of cached vectors.
func (c *EmbedCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *EmbedCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbedCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

// CachedEmbedder wraps an embedder with the cache. Batch calls only send
// the cache misses to the underlying provider.
type CachedEmbedder struct {
	inner port.Embedder
	cache *EmbedCache
}

// NewCachedEmbedder wraps the embedder with the cache.
func NewCachedEmbedder(inner port.Embedder, cache *EmbedCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Embed returns the cached vector or delegates to the wrapped embedder.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Put(text, vec)
	return vec, nil
}

// EmbedBatch embeds the texts, fetching only cache misses from the wrapped
// embedder while preserving input order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			vectors[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 && len(texts) > 0 {
		return vectors, nil
	}

	fetched, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range fetched {
		vectors[missingIdx[j]] = vec
		e.cache.Put(missing[j], vec)
	}
	return vectors, nil
}

// Dimension returns the wrapped embedder's vector dimension.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

// ModelName returns the wrapped embedder's model name.
func (e *CachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}
