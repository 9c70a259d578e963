// Package cli wires the engine's adapters into cobra commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kbase/config"
	"kbase/internal/adapter/store"
)

var (
	cfgFile string
	dataDir string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Knowledge base with hybrid retrieval and confidence-scored answers",
	Long: `kbase ingests documents into a local vector index and answers questions
strictly from them, reporting how confident the evidence is.

Example usage:
  kbase ingest ./docs               # Index all .txt/.md files under ./docs
  kbase ask "what is the refund policy"
  kbase status                      # Show index contents`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if dataDir == "" {
			dataDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(dataDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = newLogger(cfg.Logging.Level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kbase.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "data directory holding the index (default is current directory)")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openIndex opens the persisted vector index under the data directory,
// creating the data directory when needed.
func openIndex() (*store.BoltIndex, error) {
	if err := config.EnsureDataDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	idx, err := store.NewBoltIndex(config.IndexDBPath(dataDir), cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// requireIndex opens the index only if one already exists on disk.
func requireIndex() (*store.BoltIndex, error) {
	dbPath := config.IndexDBPath(dataDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found at %s. Run 'kbase ingest' first", dbPath)
	}
	return openIndex()
}
