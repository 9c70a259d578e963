package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kbase/internal/adapter/retriever"
	"kbase/internal/domain"
	"kbase/internal/port"
)

// MaxTopK bounds how many chunks a single question may retrieve.
const MaxTopK = 20

// noEvidenceAnswer is returned when retrieval finds nothing to answer from.
const noEvidenceAnswer = "I couldn't find any relevant information in the knowledge base. Please make sure documents have been uploaded and processed."

// Answerer runs the full question pipeline: retrieve, score confidence,
// assemble context and generate.
type Answerer struct {
	retriever port.Retriever
	scorer    *retriever.ConfidenceScorer
	generator port.Generator
	assembler *ContextAssembler
	logger    *slog.Logger
}

// NewAnswerer creates an answerer from its pipeline stages.
func NewAnswerer(r port.Retriever, scorer *retriever.ConfidenceScorer, generator port.Generator, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		retriever: r,
		scorer:    scorer,
		generator: generator,
		assembler: NewContextAssembler(),
		logger:    logger,
	}
}

// Answer answers the question from the indexed documents. topK must be in
// [1, MaxTopK]. An empty index or a question with no matching evidence
// yields the no-evidence answer with zero confidence, not an error. When
// generation fails the returned error carries ErrGenerationUnavailable and
// the Answer still exposes the retrieved sources and confidence, so callers
// can show the evidence even without generated text.
func (u *Answerer) Answer(ctx context.Context, question string, explainSimply bool, topK int) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is required", domain.ErrEmptyInput)
	}
	if topK < 1 || topK > MaxTopK {
		return domain.Answer{}, fmt.Errorf("%w: topK must be in [1, %d], got %d",
			domain.ErrInvalidConfiguration, MaxTopK, topK)
	}

	result, err := u.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	breakdown := u.scorer.Score(result)

	if result.Empty() {
		u.logger.Info("no evidence for question", "question", question)
		return domain.Answer{
			Text:             noEvidenceAnswer,
			Sources:          []domain.SourceInfo{},
			Breakdown:        breakdown,
			SimilarityScores: []float64{},
		}, nil
	}

	answer := domain.Answer{
		Sources:          u.assembler.SourceMetadata(result.Candidates),
		Confidence:       breakdown.FinalScore,
		Breakdown:        breakdown,
		SimilarityScores: similarityScores(result.Candidates),
	}

	contextText := u.assembler.BuildContext(result.Candidates)
	prompt := u.assembler.BuildPrompt(question, contextText, explainSimply)

	response, err := u.generator.Generate(ctx, prompt)
	if err != nil {
		u.logger.Error("generation failed",
			"question", question,
			"candidates", len(result.Candidates),
			"error", err)
		return answer, fmt.Errorf("generation failed: %w", err)
	}

	answer.Text = ExtractAnswer(response)
	u.logger.Info("question answered",
		"question", question,
		"candidates", len(result.Candidates),
		"confidence", breakdown.FinalScore)
	return answer, nil
}

func similarityScores(candidates []domain.Candidate) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Similarity
	}
	return scores
}
