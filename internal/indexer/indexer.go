// Package indexer turns uploaded files into embedding records of a collection index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// IngestResult describes a finished ingestion.
type IngestResult struct {
	CollectionID int64                 `json:"collectionId"`
	DocumentID   int64                 `json:"documentId"`
	Status       models.DocumentStatus `json:"status"`
	Chunks       int                   `json:"chunks"`
}

// Indexer runs the extract, clean, chunk, embed, store pipeline and keeps the
// document registry in step with the vector index.
type Indexer struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	index     vector.VectorIndex
	extractor *extract.Extractor
	chunker   *Chunker
	metrics   *metrics.Metrics
	logger    *zap.Logger

	jobs sync.WaitGroup
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for pipeline events and swallowed errors.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMetrics records ingestion outcomes.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	store storage.Storage,
	embedder embedding.Embedder,
	index vector.VectorIndex,
	extractor *extract.Extractor,
	chunker *Chunker,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:   store,
		embedder:  embedder,
		index:     index,
		extractor: extractor,
		chunker:   chunker,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	if idx.extractor == nil {
		idx.extractor = extract.NewExtractor(extract.WithLogger(idx.logger))
	}
	return idx
}

// Ingest indexes one document synchronously. Re-ingesting a document replaces
// its previous records. A file that yields no text is not an error: its
// records are purged and it is registered as empty.
func (idx *Indexer) Ingest(ctx context.Context, req models.IngestRequest) (*IngestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := idx.logger.With(
		zap.Int64("collection_id", req.CollectionID),
		zap.Int64("document_id", req.DocumentID),
		zap.String("path", req.FilePath),
		zap.String("file_type", req.FileType),
	)
	doc := &models.Document{
		ID:           req.DocumentID,
		CollectionID: req.CollectionID,
		FileType:     req.FileType,
		FilePath:     req.FilePath,
		Status:       models.StatusPending,
	}
	if err := idx.storage.UpsertDocument(ctx, doc); err != nil {
		idx.metrics.IngestionDone(string(models.StatusFailed))
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	text := extract.CleanText(idx.extractor.Extract(req.FilePath, req.FileType))
	chunks := idx.chunker.Chunk(text)
	result := &IngestResult{CollectionID: req.CollectionID, DocumentID: req.DocumentID}

	if len(chunks) == 0 {
		log.Debug("indexer: no content to index")
		if err := idx.index.RemoveDocument(ctx, req.CollectionID, req.DocumentID); err != nil {
			log.Warn("indexer: failed to purge stale records", zap.Error(err))
		}
		result.Status = models.StatusEmpty
		return result, idx.finish(ctx, log, result, "")
	}

	records, err := idx.buildRecords(ctx, req.DocumentID, chunks)
	if err == nil {
		err = idx.index.AddDocument(ctx, req.CollectionID, req.DocumentID, records)
	}
	if err != nil {
		result.Status = models.StatusFailed
		if ferr := idx.finish(ctx, log, result, err.Error()); ferr != nil {
			log.Warn("indexer: failed to record failure", zap.Error(ferr))
		}
		return nil, fmt.Errorf("failed to index document %d: %w", req.DocumentID, err)
	}

	result.Status = models.StatusIndexed
	result.Chunks = len(records)
	return result, idx.finish(ctx, log, result, "")
}

func (idx *Indexer) buildRecords(ctx context.Context, documentID int64, chunks []models.Chunk) ([]models.EmbeddingRecord, error) {
	records := make([]models.EmbeddingRecord, 0, len(chunks))
	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := idx.embedder.Embed(ctx, ch.Text)
		if errors.Is(err, embedding.ErrEmptyText) {
			// Chunks made only of punctuation keep their place with a zero vector.
			emb, err = make([]float32, idx.embedder.Dimensions()), nil
		}
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		records = append(records, models.EmbeddingRecord{
			DocumentID: documentID,
			ChunkID:    fileid.ChunkID(documentID, i),
			Text:       ch.Text,
			Embedding:  emb,
			Metadata: models.ChunkMetadata{
				DocumentID: documentID,
				ChunkIndex: i,
				Start:      ch.Start,
				End:        ch.End,
			},
		})
	}
	return records, nil
}

func (idx *Indexer) finish(ctx context.Context, log *zap.Logger, result *IngestResult, errMsg string) error {
	idx.metrics.IngestionDone(string(result.Status))
	log.Info("indexer: document ingested",
		zap.String("status", string(result.Status)), zap.Int("chunks", result.Chunks))
	if err := idx.storage.UpdateStatus(ctx, result.CollectionID, result.DocumentID, result.Status, result.Chunks, errMsg); err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

// Submit validates req and ingests it in the background. It returns a job id
// that appears in the logs of that ingestion. Failures and panics in the
// background are logged and recorded in the registry, never returned.
func (idx *Indexer) Submit(req models.IngestRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	jobID := uuid.NewString()
	log := idx.logger.With(zap.String("job_id", jobID),
		zap.Int64("collection_id", req.CollectionID), zap.Int64("document_id", req.DocumentID))

	idx.jobs.Add(1)
	go func() {
		defer idx.jobs.Done()
		ctx := context.Background()
		defer func() {
			if r := recover(); r != nil {
				log.Error("indexer: ingestion panicked", zap.Any("panic", r))
				idx.metrics.IngestionDone(string(models.StatusFailed))
				_ = idx.storage.UpdateStatus(ctx, req.CollectionID, req.DocumentID, models.StatusFailed, 0, fmt.Sprint(r))
			}
		}()
		if _, err := idx.Ingest(ctx, req); err != nil {
			log.Error("indexer: background ingestion failed", zap.Error(err))
		}
	}()
	log.Debug("indexer: ingestion submitted")
	return jobID, nil
}

// Wait blocks until every submitted ingestion has finished.
func (idx *Indexer) Wait() {
	idx.jobs.Wait()
}

// Remove drops a document's records from the vector index and its registry row.
// Removing an unknown document is not an error.
func (idx *Indexer) Remove(ctx context.Context, collectionID, documentID int64) error {
	if err := idx.index.RemoveDocument(ctx, collectionID, documentID); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, collectionID, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("indexer: document removed",
		zap.Int64("collection_id", collectionID), zap.Int64("document_id", documentID))
	return nil
}
