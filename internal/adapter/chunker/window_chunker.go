package chunker

import (
	"fmt"

	"kbase/internal/domain"
)

// WindowChunker splits document text into overlapping fixed-size character
// windows. Each chunk after the first starts windowSize-overlap characters
// after the previous chunk's start, so adjacent chunks share exactly
// overlap characters and the windows cover the input with no gaps.
type WindowChunker struct {
	windowSize int
	overlap    int
}

// NewWindowChunker creates a chunker with the given window size and overlap,
// both in characters. Overlap must be strictly less than the window size and
// both must be positive.
func NewWindowChunker(windowSize, overlap int) (*WindowChunker, error) {
	if windowSize <= 0 || overlap <= 0 {
		return nil, fmt.Errorf("%w: window size and overlap must be positive, got %d/%d",
			domain.ErrInvalidConfiguration, windowSize, overlap)
	}
	if overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap (%d) must be less than window size (%d)",
			domain.ErrInvalidConfiguration, overlap, windowSize)
	}
	return &WindowChunker{windowSize: windowSize, overlap: overlap}, nil
}

// Chunk splits text into chunks for the given document. The sequence index
// is zero-based and gap-free; the final chunk may be shorter than the
// window. Empty text produces no chunks.
func (c *WindowChunker) Chunk(docID, text string) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	stride := c.windowSize - c.overlap

	chunks := make([]domain.Chunk, 0, len(runes)/stride+1)
	index := 0

	for start := 0; start < len(runes); start += stride {
		end := start + c.windowSize
		if end > len(runes) {
			end = len(runes)
		}

		// Every chunk after the first starts overlap characters inside the
		// previous window, so it shares exactly that many characters.
		overlap := 0
		if index > 0 {
			overlap = c.overlap
		}

		chunks = append(chunks, domain.Chunk{
			ID:      ChunkID(docID, index),
			DocID:   docID,
			Index:   index,
			Text:    string(runes[start:end]),
			Overlap: overlap,
		})
		index++

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// ChunkID derives the stable chunk identifier from the document ID and the
// zero-based sequence index.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%04d", docID, index)
}
