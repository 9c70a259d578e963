package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"kbase/internal/adapter/chunker"
	"kbase/internal/adapter/fs"
	"kbase/internal/usecase"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a file or directory into the knowledge base",
	Long: `Ingest reads documents, splits them into overlapping chunks, embeds each
chunk and stores the vectors in the local index at .kbase/index.db.

A directory is walked with the configured include/exclude patterns
(by default **/*.txt and **/*.md). A file already in the index is
skipped; remove it first to re-ingest.

Examples:
  kbase ingest notes.txt
  kbase ingest ./docs
  kbase ingest ./docs --watch   # re-ingest files as they change`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "watch for file changes and re-ingest")
}

// docIDForPath derives a stable document ID from the absolute file path, so
// the same file always maps to the same document across runs.
func docIDForPath(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("kbase://"+path)).String()
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var files []fs.FileInfo
	if info.IsDir() {
		walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
		files, err = walker.Walk(path)
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if len(files) == 0 {
			fmt.Println("No matching files found.")
			return nil
		}
	} else {
		files = []fs.FileInfo{{Path: path, RelPath: filepath.Base(path), Size: info.Size()}}
	}

	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	chk, err := chunker.NewWindowChunker(cfg.Chunking.WindowSize, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}
	ingester := usecase.NewIngester(chk, embedder, idx, logger)

	ingested, skipped, chunks := ingestFiles(cmd.Context(), ingester, files)

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", ingested)
	fmt.Printf("  Files skipped:  %d (already indexed or unreadable)\n", skipped)
	fmt.Printf("  Chunks indexed: %d\n", chunks)

	if !ingestWatch {
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("--watch requires a directory")
	}
	return watchAndReingest(path, ingester)
}

// ingestFiles ingests every file, reporting progress. Files that are
// already indexed or cannot be read are skipped, not fatal.
func ingestFiles(ctx context.Context, ingester *usecase.Ingester, files []fs.FileInfo) (ingested, skipped, chunks int) {
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	for _, file := range files {
		text, err := fs.ReadFile(file.Path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", file.Path, "error", err)
			skipped++
			bar.Add(1)
			continue
		}

		count, err := ingester.Ingest(ctx, docIDForPath(file.Path), file.RelPath, text)
		if err != nil {
			logger.Warn("skipping file", "path", file.Path, "error", err)
			skipped++
			bar.Add(1)
			continue
		}

		ingested++
		chunks += count
		bar.Add(1)
	}
	return ingested, skipped, chunks
}

// watchSession tracks the directories under watch below one root and
// re-ingests matching files as events arrive.
type watchSession struct {
	watcher  *fsnotify.Watcher
	ingester *usecase.Ingester
	matcher  *fs.Walker // include and exclude patterns, for files
	pruner   *fs.Walker // exclude patterns only, for directories
	root     string
}

// watchAndReingest blocks, re-ingesting files as they change, until
// interrupted.
func watchAndReingest(root string, ingester *usecase.Ingester) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	session := &watchSession{
		watcher:  watcher,
		ingester: ingester,
		matcher:  fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes),
		pruner:   fs.NewWalker(nil, cfg.Ingest.Excludes),
		root:     root,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.watchTree(ctx, root, false); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	fmt.Printf("Watching %s for changes (ctrl-c to stop)...\n", root)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			session.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func (s *watchSession) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if !info.IsDir() {
		s.reingest(ctx, event.Name)
		return
	}
	if !event.Has(fsnotify.Create) {
		return
	}
	// A directory created or moved under the root is not watched yet, and
	// files it already contains produce no events of their own.
	if err := s.watchTree(ctx, event.Name, true); err != nil {
		logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
	}
}

// watchTree adds dir and its non-excluded subdirectories to the watcher.
// With ingest set, matching files already inside are ingested as well.
func (s *watchSession) watchTree(ctx context.Context, dir string, ingest bool) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && s.pruner.Excluded(rel+"/") {
				return filepath.SkipDir
			}
			return s.watcher.Add(path)
		}
		if ingest {
			s.reingest(ctx, path)
		}
		return nil
	})
}

// reingest replaces the indexed document for a changed file. Paths that do
// not match the ingest patterns are ignored.
func (s *watchSession) reingest(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if !s.matcher.Matches(rel) {
		return
	}

	text, err := fs.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read changed file", "path", path, "error", err)
		return
	}

	docID := docIDForPath(path)
	if err := s.ingester.Remove(docID); err != nil {
		logger.Warn("failed to remove stale document", "path", path, "error", err)
		return
	}
	count, err := s.ingester.Ingest(ctx, docID, rel, text)
	if err != nil {
		logger.Warn("failed to re-ingest changed file", "path", path, "error", err)
		return
	}
	fmt.Printf("Re-ingested %s (%d chunks)\n", rel, count)
}
