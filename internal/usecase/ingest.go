// Package usecase orchestrates the document lifecycle: ingestion into the
// vector index and question answering over it.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kbase/internal/domain"
	"kbase/internal/port"
)

// Ingester turns raw document text into indexed, embedded chunks.
type Ingester struct {
	chunker  port.Chunker
	embedder port.Embedder
	index    port.VectorIndex
	logger   *slog.Logger
}

// NewIngester creates an ingester over the given chunker, embedder and index.
func NewIngester(chunker port.Chunker, embedder port.Embedder, index port.VectorIndex, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Ingest chunks the text, embeds every chunk in batches and adds the whole
// document to the index in one atomic operation. It returns the number of
// chunks indexed. An embedding failure aborts the ingestion with nothing
// committed.
func (u *Ingester) Ingest(ctx context.Context, docID, filename, text string) (int, error) {
	if docID == "" {
		return 0, fmt.Errorf("%w: document ID is required", domain.ErrEmptyInput)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: document %s has no text", domain.ErrEmptyInput, docID)
	}

	chunks, err := u.chunker.Chunk(docID, text)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk document %s: %w", docID, err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: document %s produced no chunks", domain.ErrEmptyInput, docID)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := u.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document %s: %w", docID, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]port.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = port.Entry{
			ChunkID: c.ID,
			DocID:   c.DocID,
			Index:   c.Index,
			Source:  filename,
			Text:    c.Text,
			Vector:  vectors[i],
		}
	}

	if err := u.index.Add(entries); err != nil {
		return 0, fmt.Errorf("failed to index document %s: %w", docID, err)
	}

	u.logger.Info("document ingested",
		"doc_id", docID,
		"filename", filename,
		"chunks", len(chunks))
	return len(chunks), nil
}

// Remove deletes every indexed entry of the document. Removing an unknown
// document is a no-op.
func (u *Ingester) Remove(docID string) error {
	if docID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrEmptyInput)
	}
	if err := u.index.Remove(docID); err != nil {
		return fmt.Errorf("failed to remove document %s: %w", docID, err)
	}
	u.logger.Info("document removed", "doc_id", docID)
	return nil
}

// Stats reports how many documents and chunk entries the index holds.
func (u *Ingester) Stats() (domain.Stats, error) {
	docs, entries, err := u.index.Stats()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to read index stats: %w", err)
	}
	return domain.Stats{TotalDocs: docs, TotalEntries: entries}, nil
}
