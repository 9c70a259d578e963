package port

import "kbase/internal/domain"

// Chunker splits document text into overlapping fixed-size windows.
type Chunker interface {
	Chunk(docID, text string) ([]domain.Chunk, error)
}
