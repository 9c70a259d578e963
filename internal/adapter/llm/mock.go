package llm

import (
	"context"

	"kbase/internal/domain"
)

// MockGenerator returns canned output for tests. When Err is set every call
// fails with it.
type MockGenerator struct {
	Output  string
	Err     error
	Prompts []string
}

// Generate records the prompt and returns the canned output or error.
func (g *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if g.Output == "" {
		return "mock answer", nil
	}
	return g.Output, nil
}

// ModelName returns the mock model identifier.
func (g *MockGenerator) ModelName() string {
	return "mock"
}

// Unavailable is a convenience constructor for a generator that always
// fails as if the provider were down.
func Unavailable() *MockGenerator {
	return &MockGenerator{Err: domain.ErrGenerationUnavailable}
}
