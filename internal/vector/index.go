// Package vector provides per-collection embedding record stores and similarity search.
package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// VectorIndex stores the embedding records of each collection. Every operation
// is scoped to one collection; writes to the same collection are serialized.
type VectorIndex interface {
	// Load returns the collection's records in stored order. A collection that
	// has never been written is empty, not an error.
	Load(ctx context.Context, collectionID int64) ([]models.EmbeddingRecord, error)
	// Save replaces all records of the collection.
	Save(ctx context.Context, collectionID int64, records []models.EmbeddingRecord) error
	// AddDocument replaces the document's records with the given ones.
	AddDocument(ctx context.Context, collectionID, documentID int64, records []models.EmbeddingRecord) error
	// RemoveDocument drops every record of the document.
	RemoveDocument(ctx context.Context, collectionID, documentID int64) error
	// Search ranks the collection's records against query. See Rank.
	Search(ctx context.Context, collectionID int64, query []float32, topK int) ([]models.ScoredRecord, error)
	Close() error
}

// replaceDocument returns records without documentID's entries, followed by add.
func replaceDocument(records []models.EmbeddingRecord, documentID int64, add []models.EmbeddingRecord) []models.EmbeddingRecord {
	out := make([]models.EmbeddingRecord, 0, len(records)+len(add))
	for _, r := range records {
		if r.DocumentID != documentID {
			out = append(out, r)
		}
	}
	return append(out, add...)
}

func checkRecords(dimensions int, documentID int64, records []models.EmbeddingRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.DocumentID != documentID {
			return fmt.Errorf("record %d belongs to document %d, not %d", i, r.DocumentID, documentID)
		}
		if dimensions > 0 && len(r.Embedding) != dimensions {
			return fmt.Errorf("record %d: embedding dimension %d, expected %d", i, len(r.Embedding), dimensions)
		}
		if _, dup := seen[r.ChunkID]; dup {
			return fmt.Errorf("record %d: duplicate chunk id %q", i, r.ChunkID)
		}
		seen[r.ChunkID] = struct{}{}
	}
	return nil
}
