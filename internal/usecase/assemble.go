package usecase

import (
	"fmt"
	"strings"

	"kbase/internal/domain"
)

// previewLength caps the per-source content preview attached to answers.
const previewLength = 300

// answerPrompt instructs the model to answer strictly from the supplied
// context and to mark the answer section so it can be extracted from a
// chatty response.
const answerPrompt = `You are a knowledge base assistant that answers questions STRICTLY based on the provided document context from uploaded files ONLY.

CRITICAL RULES:
1. Use ONLY information from the document context below.
2. Do NOT use external knowledge or make assumptions beyond the documents.
3. If the answer is not in the context, say: "I don't have information about this in the uploaded documents. Please upload relevant documents or rephrase your question."
4. Format the answer as bullet points.
5. If the context only partially answers the question, state what is available and what is missing.

User Question:
%s

Document Context (from uploaded files only):
%s

Additional Mode:
Explain simply: %s

Return your response in this format:
ANSWER: [your answer, based only on the document context]

SOURCES: [the sources you used]`

// ContextAssembler formats ranked candidates into the generation prompt and
// into the source attributions returned with the answer.
type ContextAssembler struct{}

// NewContextAssembler creates a context assembler.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// BuildContext renders candidates as attributed text blocks, each headed by
// its source file and chunk index, separated by a rule.
func (a *ContextAssembler) BuildContext(candidates []domain.Candidate) string {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprintf("[Source: %s, Chunk %d]\n%s\n", c.Source, c.Index, c.Text)
	}
	return strings.Join(parts, "\n---\n\n")
}

// BuildPrompt combines the question and assembled context into the strict
// answer-from-context prompt. The explain-simply toggle changes the
// instructional framing only, never the evidence.
func (a *ContextAssembler) BuildPrompt(question, context string, explainSimply bool) string {
	mode := "No"
	if explainSimply {
		mode = "Yes, use simple language a ten year old would follow, but stay accurate"
	}
	return fmt.Sprintf(answerPrompt, question, context, mode)
}

// SourceMetadata builds the per-candidate source attributions, previews
// capped at previewLength characters.
func (a *ContextAssembler) SourceMetadata(candidates []domain.Candidate) []domain.SourceInfo {
	sources := make([]domain.SourceInfo, len(candidates))
	for i, c := range candidates {
		preview := c.Text
		if runes := []rune(preview); len(runes) > previewLength {
			preview = string(runes[:previewLength]) + "..."
		}
		sources[i] = domain.SourceInfo{
			Source:     c.Source,
			ChunkIndex: c.Index,
			Preview:    preview,
			Similarity: c.Similarity,
		}
	}
	return sources
}

// ExtractAnswer pulls the ANSWER section out of a model response that
// followed the prompt's format, falling back to the whole text when the
// markers are absent.
func ExtractAnswer(response string) string {
	text := response
	if _, after, found := strings.Cut(text, "ANSWER:"); found {
		text = after
	}
	if before, _, found := strings.Cut(text, "SOURCES:"); found {
		text = before
	}
	return strings.TrimSpace(text)
}
