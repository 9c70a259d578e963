package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var removeID string

var removeCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove a document from the knowledge base",
	Long: `Remove deletes every indexed chunk of a document. Pass the file path it
was ingested from, or a raw document ID with --id.

Examples:
  kbase remove notes.txt
  kbase remove --id 6fa459ea-ee8a-3ca4-894e-db77e160355e`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVar(&removeID, "id", "", "document ID to remove")
}

func runRemove(cmd *cobra.Command, args []string) error {
	docID := removeID
	if docID == "" {
		if len(args) == 0 {
			return fmt.Errorf("a file path or --id is required")
		}
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		docID = docIDForPath(path)
	}

	idx, err := requireIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Remove(docID); err != nil {
		return fmt.Errorf("failed to remove document %s: %w", docID, err)
	}

	fmt.Printf("Removed document %s\n", docID)
	return nil
}
