package cli

import (
	"fmt"

	"kbase/internal/adapter/cache"
	"kbase/internal/adapter/embedding"
	"kbase/internal/adapter/llm"
	"kbase/internal/port"
)

// embedCacheSize bounds how many chunk/query vectors the process memoizes.
const embedCacheSize = 512

// newEmbedder builds the configured embedding provider, wrapped with the
// in-process embedding cache.
func newEmbedder() (port.Embedder, error) {
	var (
		inner port.Embedder
		err   error
	)

	switch cfg.Embedding.Provider {
	case "openai":
		inner, err = embedding.NewOpenAIEmbedder(embedding.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKeyEnv: cfg.Embedding.APIKeyEnv,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			Timeout:   cfg.Embedding.Timeout,
		})
	case "mock":
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return cache.NewCachedEmbedder(inner, cache.NewEmbedCache(embedCacheSize)), nil
}

// newGenerator builds the configured generation provider.
func newGenerator() (port.Generator, error) {
	switch cfg.Generation.Provider {
	case "openai":
		gen, err := llm.NewOpenAIGenerator(llm.Config{
			BaseURL:     cfg.Generation.BaseURL,
			APIKeyEnv:   cfg.Generation.APIKeyEnv,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Timeout:     cfg.Generation.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		return gen, nil
	case "mock":
		return &llm.MockGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Generation.Provider)
	}
}
