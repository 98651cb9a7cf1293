package vector

import (
	"sort"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
)

const (
	// SimilarityFloor is the similarity a hit must exceed to be kept on its own merit.
	SimilarityFloor = 0.01
	// MinResults is how many hits are returned, floor or not, when that many exist.
	MinResults = 3
)

// Rank scores records by cosine similarity to query, sorts them descending,
// and keeps the topK best. Hits at or below SimilarityFloor are dropped unless
// that would leave fewer than min(MinResults, topK, len(records)), in which
// case the best ones are returned regardless of score.
func Rank(records []models.EmbeddingRecord, query []float32, topK int) []models.ScoredRecord {
	if topK <= 0 || len(records) == 0 {
		return nil
	}
	scored := make([]models.ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = models.ScoredRecord{EmbeddingRecord: r, Similarity: embedding.CosineSimilarity(query, r.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	top := scored[:min(topK, len(scored))]

	passed := 0
	for passed < len(top) && top[passed].Similarity > SimilarityFloor {
		passed++
	}
	if floor := min(MinResults, len(top)); passed < floor {
		return top[:floor]
	}
	return top[:passed]
}
