package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	VectorIndex vector.VectorIndex
	Embedder    embedding.Embedder
	LLM         *llm.Client
	Metrics     *metrics.Metrics
	Indexer     *indexer.Indexer
	Service     *rag.Service
}

// Close waits for background ingestions and releases the stores.
func (c *Components) Close() {
	if c.Indexer != nil {
		c.Indexer.Wait()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	vectorIndex, err := vector.NewVectorIndex(cfg.Vector.Backend, cfg.Storage.IndexDir, cfg.Embedding.Dimensions, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	var embedder embedding.Embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	if cfg.Embedding.CacheSize > 0 {
		cached, err := embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
		if err != nil {
			_ = vectorIndex.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
		}
		embedder = cached
	}
	logger.Info("vector index initialized",
		zap.String("backend", cfg.Vector.Backend),
		zap.String("embedding", embedder.Version()))

	chunker, err := indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		_ = vectorIndex.Close()
		_ = store.Close()
		return nil, err
	}

	m := metrics.New()
	client := llm.NewClient(llm.Config{
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		Timeout:      cfg.LLM.Timeout,
		ProbeTimeout: cfg.LLM.ProbeTimeout,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
	}, llm.WithLogger(logger), llm.WithObserver(m.ObserveLLM))

	idx := indexer.NewIndexer(store, embedder, vectorIndex,
		extract.NewExtractor(extract.WithLogger(logger)), chunker,
		indexer.WithLogger(logger), indexer.WithMetrics(m))
	svc := rag.NewService(idx, store, vectorIndex, embedder, client,
		rag.WithLogger(logger), rag.WithMetrics(m))

	return &Components{
		Storage:     store,
		VectorIndex: vectorIndex,
		Embedder:    embedder,
		LLM:         client,
		Metrics:     m,
		Indexer:     idx,
		Service:     svc,
	}, nil
}
