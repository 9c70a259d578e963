package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kbase/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the knowledge base contains",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	idx, err := requireIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	docs, entries, err := idx.Stats()
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	fmt.Printf("Index:     %s\n", config.IndexDBPath(dataDir))
	fmt.Printf("Documents: %d\n", docs)
	fmt.Printf("Chunks:    %d\n", entries)
	fmt.Printf("Embedding: %s/%s (dimension %d)\n",
		cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimension)
	fmt.Printf("Generator: %s/%s\n", cfg.Generation.Provider, cfg.Generation.Model)
	return nil
}
