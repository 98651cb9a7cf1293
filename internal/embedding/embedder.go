// Package embedding provides hashed bag-of-words text embeddings, cosine similarity, and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when text has nothing left after normalization.
var ErrEmptyText = errors.New("embedding: empty text")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Version identifies the algorithm and dimension. Vectors from different
	// versions are not comparable.
	Version() string
}
