package vector

import (
	"context"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// MemoryIndex keeps collections in process memory. Nothing is persisted; it
// suits tests and throwaway runs.
type MemoryIndex struct {
	dimensions  int
	mu          sync.RWMutex
	collections map[int64][]models.EmbeddingRecord
}

// NewMemoryIndex creates an empty in-memory index. dimensions of 0 disables
// the embedding length check.
func NewMemoryIndex(dimensions int) *MemoryIndex {
	return &MemoryIndex{dimensions: dimensions, collections: make(map[int64][]models.EmbeddingRecord)}
}

// Load returns a copy of the collection's records.
func (m *MemoryIndex) Load(ctx context.Context, collectionID int64) ([]models.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.EmbeddingRecord(nil), m.collections[collectionID]...), nil
}

// Save replaces the collection's records.
func (m *MemoryIndex) Save(ctx context.Context, collectionID int64, records []models.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collectionID] = append([]models.EmbeddingRecord(nil), records...)
	return nil
}

// AddDocument replaces the document's records.
func (m *MemoryIndex) AddDocument(ctx context.Context, collectionID, documentID int64, records []models.EmbeddingRecord) error {
	if err := checkRecords(m.dimensions, documentID, records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collectionID] = replaceDocument(m.collections[collectionID], documentID, records)
	return nil
}

// RemoveDocument drops the document's records.
func (m *MemoryIndex) RemoveDocument(ctx context.Context, collectionID, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collectionID] = replaceDocument(m.collections[collectionID], documentID, nil)
	return nil
}

// Search ranks the collection's records against query.
func (m *MemoryIndex) Search(ctx context.Context, collectionID int64, query []float32, topK int) ([]models.ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Rank(m.collections[collectionID], query, topK), nil
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
