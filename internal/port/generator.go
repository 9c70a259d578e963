package port

import "context"

// Generator produces answer text from a prompt via an external provider.
type Generator interface {
	// Generate returns the model output for the prompt. Implementations
	// surface domain.ErrGenerationUnavailable after the single automatic
	// retry is exhausted.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the generation model.
	ModelName() string
}
