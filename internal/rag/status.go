package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kotae/internal/models"
)

// Status reports what the collection holds and whether the LLM answers. The
// registry count, the index scan, and the LLM probe run concurrently.
func (s *Service) Status(ctx context.Context, collectionID int64) (*models.CollectionStatus, error) {
	status := &models.CollectionStatus{CollectionID: collectionID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.storage.CountDocuments(gctx, collectionID)
		if err != nil {
			return fmt.Errorf("failed to count documents: %w", err)
		}
		status.DocumentCount = int(n)
		return nil
	})
	g.Go(func() error {
		records, err := s.index.Load(gctx, collectionID)
		if err != nil {
			s.logger.Warn("rag: failed to load index for status",
				zap.Int64("collection_id", collectionID), zap.Error(err))
			return nil
		}
		docs := make(map[int64]struct{})
		for _, r := range records {
			docs[r.DocumentID] = struct{}{}
		}
		status.EmbeddingCount = len(records)
		status.DistinctDocumentsWithEmbeddings = len(docs)
		return nil
	})
	g.Go(func() error {
		// The probe has its own short timeout; gctx only cancels it on a count failure.
		status.LLM = s.llm.Probe(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return status, nil
}
