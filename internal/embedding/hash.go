package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/pkg/utils"
)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 128

// HashEmbedder maps text to a bag of hashed words. It is deterministic and
// safe for concurrent use.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing vectors of the given size.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the L2-normalized vector for text. Text that is empty after
// normalization yields ErrEmptyText; text whose tokens are all filtered out
// yields the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(Normalize(text)) == "" {
		return nil, ErrEmptyText
	}
	vec := make([]float32, e.dimensions)
	for i, tok := range Tokenize(text) {
		vec[bucket(HashToken(tok), e.dimensions)] += float32(1 / (1 + 0.1*float64(i)))
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Version returns the algorithm identifier, including the dimension.
func (e *HashEmbedder) Version() string {
	return fmt.Sprintf("hashbow-v1-d%d", e.dimensions)
}
