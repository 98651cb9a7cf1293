// Package rag answers questions about a collection from its indexed documents.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	// TopK is the number of records retrieved per question.
	TopK = 10
	// weakRecords are used as context when search returns nothing.
	weakRecords    = 5
	weakSimilarity = 0.05
	sourceSnippet  = 200
)

// Fixed answers.
const (
	MsgNoContent        = "No documents have been processed for this class yet. Upload some course material and try again."
	MsgEmbedFailed      = "I could not process the question. Please rephrase it and try again."
	MsgNoAnswer         = "I couldn't find an answer to that question in the course material."
	MsgGenerationFailed = "Sorry, something went wrong while generating the answer. Please try again later."
)

// ErrGeneration is returned when the LLM fails and no context is available to fall back on.
var ErrGeneration = errors.New("answer generation failed")

// LLM is the chat endpoint the service answers with.
type LLM interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Probe(ctx context.Context) models.LLMStatus
}

var _ LLM = (*llm.Client)(nil)

// Service ingests documents into collections and answers questions against them.
type Service struct {
	indexer  *indexer.Indexer
	storage  storage.Storage
	index    vector.VectorIndex
	embedder embedding.Embedder
	llm      LLM
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets a logger for degraded paths and swallowed errors.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records which path produced each answer.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a service. The indexer must write to the same storage and index.
func NewService(
	idx *indexer.Indexer,
	store storage.Storage,
	index vector.VectorIndex,
	embedder embedding.Embedder,
	model LLM,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		indexer:  idx,
		storage:  store,
		index:    index,
		embedder: embedder,
		llm:      model,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Ingest schedules a document for background ingestion and returns its job id.
func (s *Service) Ingest(req models.IngestRequest) (string, error) {
	return s.indexer.Submit(req)
}

// IngestSync ingests a document and waits for the result.
func (s *Service) IngestSync(ctx context.Context, req models.IngestRequest) (*indexer.IngestResult, error) {
	return s.indexer.Ingest(ctx, req)
}

// RemoveFromIndex drops a document from the collection.
func (s *Service) RemoveFromIndex(ctx context.Context, collectionID, documentID int64) error {
	return s.indexer.Remove(ctx, collectionID, documentID)
}

// Wait blocks until background ingestions have finished.
func (s *Service) Wait() {
	s.indexer.Wait()
}

// Answer answers question from the collection's documents. Degraded outcomes
// (empty collection, unusable question, LLM offline) are answers, not errors.
// ErrGeneration is returned only when the LLM fails without usable context.
func (s *Service) Answer(ctx context.Context, collectionID int64, question string) (*models.QueryResult, error) {
	log := s.logger.With(zap.Int64("collection_id", collectionID))

	records, err := s.index.Load(ctx, collectionID)
	if err != nil {
		log.Warn("rag: failed to load index, treating as empty", zap.Error(err))
		records = nil
	}
	if len(records) == 0 {
		s.metrics.Answered(metrics.PathNoContent)
		return &models.QueryResult{Answer: MsgNoContent, Sources: []models.Source{}}, nil
	}

	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		log.Debug("rag: question could not be embedded", zap.Error(err))
		s.metrics.Answered(metrics.PathEmbedFailed)
		return &models.QueryResult{Answer: MsgEmbedFailed, Sources: []models.Source{}}, nil
	}

	hits, err := s.index.Search(ctx, collectionID, query, TopK)
	if err != nil {
		log.Warn("rag: search failed", zap.Error(err))
		hits = nil
	}
	if len(hits) == 0 {
		hits = weakHits(records)
	}

	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = h.Text
	}
	contextText := BuildContext(blocks)
	result := &models.QueryResult{Sources: sources(hits)}

	raw, err := s.llm.Generate(ctx, SystemPrompt, UserPrompt(contextText, question))
	if err == nil {
		if answer := llm.Sanitize(raw); answer != "" {
			s.metrics.Answered(metrics.PathLLM)
			result.Answer = answer
			return result, nil
		}
		err = fmt.Errorf("%w: answer empty after sanitizing", llm.ErrMalformedResponse)
	}

	if !llm.IsUnreachable(err) && !hasText(blocks) {
		log.Error("rag: generation failed", zap.Error(err))
		s.metrics.Answered(metrics.PathError)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	log.Warn("rag: llm unavailable, answering from context", zap.Error(err))
	s.metrics.Answered(metrics.PathFallback)
	result.Answer = Fallback(question, blocks)
	return result, nil
}

// weakHits takes the first stored records when search finds nothing.
func weakHits(records []models.EmbeddingRecord) []models.ScoredRecord {
	n := min(weakRecords, len(records))
	hits := make([]models.ScoredRecord, n)
	for i := range hits {
		hits[i] = models.ScoredRecord{EmbeddingRecord: records[i], Similarity: weakSimilarity}
	}
	return hits
}

func hasText(blocks []string) bool {
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

func sources(hits []models.ScoredRecord) []models.Source {
	out := make([]models.Source, len(hits))
	for i, h := range hits {
		out[i] = models.Source{
			DocumentID: h.DocumentID,
			Text:       utils.Prefix(h.Text, sourceSnippet) + "...",
			Similarity: h.Similarity,
		}
	}
	return out
}
