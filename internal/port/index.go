package port

// Entry is the persisted pairing of a chunk's embedding vector with enough
// metadata to reconstruct a citation without re-reading the source document.
type Entry struct {
	ChunkID string
	DocID   string
	Index   int
	Source  string
	Text    string
	Vector  []float32
}

// Hit is one search result: an entry plus its similarity to the query.
type Hit struct {
	Entry
	Score float64
}

// VectorIndex persists chunk vectors and supports similarity search. It is
// the single source of truth for what is searchable.
type VectorIndex interface {
	// Add inserts entries atomically per document: either all entries of a
	// document become visible or none do.
	Add(entries []Entry) error

	// Search returns the k entries most similar to the query vector,
	// descending by similarity, ties broken by ascending chunk ID.
	// Returns domain.ErrIndexEmpty when no entries exist.
	Search(query []float32, k int) ([]Hit, error)

	// Remove deletes all entries for the document. Removing an unknown
	// document is a no-op, not an error.
	Remove(docID string) error

	// Stats reports document and entry counts.
	Stats() (docs int, entries int, err error)

	// Close flushes and releases the underlying storage.
	Close() error
}
