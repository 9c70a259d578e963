// Package store persists the vector index in a bbolt database with an
// in-memory view for brute-force similarity search.
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"kbase/internal/domain"
	"kbase/internal/port"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// BoltIndex is a bbolt-backed vector index. Writes (Add, Remove) serialize
// on the mutex and commit through a single bbolt transaction before the
// in-memory view is published, so readers always observe a document's
// entries all-or-nothing. Search runs concurrently under the read lock.
type BoltIndex struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	entries map[string]port.Entry // chunk ID -> entry
	byDoc   map[string][]string   // doc ID -> chunk IDs
}

type storedEntry struct {
	DocID  string    `json:"doc_id"`
	Index  int       `json:"index"`
	Source string    `json:"source"`
	Text   string    `json:"text"`
	Vector []float32 `json:"v"`
}

// NewBoltIndex opens (or creates) the persisted index at path. A fresh path
// yields an empty index; an existing file that cannot be read, or whose
// contents are corrupt or embedded with a different dimension, is reported
// as domain.ErrIndexUnavailable so callers can tell "no documents yet" from
// "storage corrupted".
func NewBoltIndex(path string, dimension int) (*BoltIndex, error) {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		if existed {
			return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
		return nil, fmt.Errorf("failed to create index at %s: %w", path, err)
	}

	idx := &BoltIndex{
		db:        db,
		dimension: dimension,
		entries:   make(map[string]port.Entry),
		byDoc:     make(map[string][]string),
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// load reads the persisted entries into memory and verifies the stored
// embedding dimension.
func (s *BoltIndex) load() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if stored := meta.Get(keyDimension); stored != nil {
			var dim int
			if err := json.Unmarshal(stored, &dim); err != nil {
				return fmt.Errorf("%w: corrupt dimension record: %v", domain.ErrIndexUnavailable, err)
			}
			if dim != s.dimension {
				return fmt.Errorf("%w: index built with dimension %d, configured %d",
					domain.ErrIndexUnavailable, dim, s.dimension)
			}
		} else {
			dim, _ := json.Marshal(s.dimension)
			if err := meta.Put(keyDimension, dim); err != nil {
				return err
			}
		}

		b, err := tx.CreateBucketIfNotExists(bucketEntries)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("%w: corrupt entry %s: %v", domain.ErrIndexUnavailable, k, err)
			}
			if len(stored.Vector) != s.dimension {
				return fmt.Errorf("%w: entry %s has dimension %d, expected %d",
					domain.ErrIndexUnavailable, k, len(stored.Vector), s.dimension)
			}
			id := string(k)
			s.entries[id] = port.Entry{
				ChunkID: id,
				DocID:   stored.DocID,
				Index:   stored.Index,
				Source:  stored.Source,
				Text:    stored.Text,
				Vector:  stored.Vector,
			}
			s.byDoc[stored.DocID] = append(s.byDoc[stored.DocID], id)
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, ids := range s.byDoc {
		sort.Strings(ids)
	}
	return nil
}

// Add inserts entries atomically per document: they are written in one
// bbolt transaction and published to the in-memory view only after the
// commit, so a failure leaves nothing behind. Re-adding a document that is
// already indexed is rejected; remove it first.
func (s *BoltIndex) Add(entries []port.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d",
				e.ChunkID, s.dimension, len(e.Vector))
		}
		if _, exists := s.entries[e.ChunkID]; exists {
			return fmt.Errorf("chunk already indexed: %s", e.ChunkID)
		}
		if _, exists := s.byDoc[e.DocID]; exists {
			return fmt.Errorf("document already indexed: %s", e.DocID)
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, e := range entries {
			data, err := json.Marshal(storedEntry{
				DocID:  e.DocID,
				Index:  e.Index,
				Source: e.Source,
				Text:   e.Text,
				Vector: e.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist entries: %w", err)
	}

	// Publish only after the durable commit.
	for _, e := range entries {
		s.entries[e.ChunkID] = e
		s.byDoc[e.DocID] = append(s.byDoc[e.DocID], e.ChunkID)
	}
	for _, e := range entries {
		sort.Strings(s.byDoc[e.DocID])
	}
	return nil
}

// Search returns the k entries most similar to the query vector, descending
// by cosine similarity, ties broken by ascending chunk ID for determinism.
func (s *BoltIndex) Search(query []float32, k int) ([]port.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, domain.ErrIndexEmpty
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}

	hits := make([]port.Hit, 0, len(s.entries))
	for _, entry := range s.entries {
		hits = append(hits, port.Hit{
			Entry: entry,
			Score: cosineSimilarity(query, entry.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Remove deletes all entries for the document in one transaction. Removing
// an unknown document is a no-op.
func (s *BoltIndex) Remove(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byDoc[docID]
	if !ok {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove document %s: %w", docID, err)
	}

	for _, id := range ids {
		delete(s.entries, id)
	}
	delete(s.byDoc, docID)
	return nil
}

// Stats reports the number of indexed documents and entries.
func (s *BoltIndex) Stats() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDoc), len(s.entries), nil
}

// Close flushes and closes the underlying database.
func (s *BoltIndex) Close() error {
	return s.db.Close()
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
