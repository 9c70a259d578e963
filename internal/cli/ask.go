package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kbase/internal/adapter/analyzer"
	"kbase/internal/adapter/retriever"
	"kbase/internal/domain"
	"kbase/internal/usecase"
)

var (
	askTopK   int
	askSimple bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the ingested documents",
	Long: `Ask retrieves the most relevant chunks with hybrid (vector + keyword)
ranking, scores how confident the evidence is and generates an answer
strictly from the retrieved context.

Examples:
  kbase ask "what is the refund policy"
  kbase ask -k 10 --json "who signed the contract"
  kbase ask --simple "how does the billing cycle work"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askSimple, "simple", false, "explain the answer in simple terms")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	idx, err := requireIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	generator, err := newGenerator()
	if err != nil {
		return err
	}

	keywords := analyzer.NewKeywordExtractor(cfg.Keywords.MinTermLength)
	hybrid := retriever.NewHybridRetriever(idx, embedder, keywords,
		retriever.WithOverfetchFactor(cfg.Retrieve.OverfetchFactor),
		retriever.WithWeights(cfg.Retrieve.SimilarityWeight, cfg.Retrieve.LexicalWeight),
	)
	scorer := retriever.NewConfidenceScorerWithWeights(
		cfg.Confidence.BestWeight,
		cfg.Confidence.AvgWeight,
		cfg.Confidence.ConsistencyWeight,
		cfg.Confidence.KeywordWeight,
	)
	answerer := usecase.NewAnswerer(hybrid, scorer, generator, logger)

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	answer, err := answerer.Answer(cmd.Context(), question, askSimple, topK)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			return err
		}
		// The evidence survived even though generation did not.
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Generation failed; showing retrieved evidence only."))
	}

	if askJSON {
		output, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	printAnswer(answer)
	return nil
}

var (
	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(76)
	headingStyle = lipgloss.NewStyle().Bold(true)
	sourceStyle  = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	confidenceHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	confidenceMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	confidenceLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func printAnswer(answer domain.Answer) {
	if answer.Text != "" {
		fmt.Println(answerStyle.Render(answer.Text))
	}

	fmt.Printf("\n%s %s\n", headingStyle.Render("Confidence:"), confidenceLabel(answer.Confidence))
	b := answer.Breakdown
	fmt.Println(sourceStyle.Render(fmt.Sprintf(
		"  best %.2f | avg %.2f | consistency %.2f | keywords %.2f",
		b.BestSimilarity, b.AvgSimilarity, b.Consistency, b.KeywordMatch)))

	if len(answer.Sources) == 0 {
		return
	}
	fmt.Printf("\n%s\n", headingStyle.Render("Sources:"))
	for i, src := range answer.Sources {
		fmt.Printf("  %d. %s (chunk %d, similarity %.2f)\n", i+1, src.Source, src.ChunkIndex, src.Similarity)
		fmt.Println(sourceStyle.Render("     " + firstLine(src.Preview)))
	}
}

// confidenceLabel renders the score as a colored bar with a percentage.
func confidenceLabel(score float64) string {
	const width = 20
	filled := int(score * width)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := fmt.Sprintf("%s %.0f%%", bar, score*100)

	switch {
	case score >= 0.7:
		return confidenceHigh.Render(label)
	case score >= 0.4:
		return confidenceMid.Render(label)
	default:
		return confidenceLow.Render(label)
	}
}

func firstLine(text string) string {
	if line, _, found := strings.Cut(text, "\n"); found {
		return line + " ..."
	}
	return text
}
