package vector

import (
	"fmt"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func rec(docID int64, i int, emb ...float32) models.EmbeddingRecord {
	return models.EmbeddingRecord{
		DocumentID: docID,
		ChunkID:    fmt.Sprintf("%d_%d", docID, i),
		Text:       fmt.Sprintf("doc %d chunk %d", docID, i),
		Embedding:  emb,
		Metadata:   models.ChunkMetadata{DocumentID: docID, ChunkIndex: i},
	}
}

func TestRank_SortedAndLimited(t *testing.T) {
	records := []models.EmbeddingRecord{
		rec(1, 0, 0.2, 1),
		rec(1, 1, 1, 0),
		rec(2, 0, 1, 0.5),
		rec(2, 1, 0, 1),
		rec(3, 0, 1, 0.1),
	}
	got := Rank(records, []float32{1, 0}, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("results not sorted at %d: %f > %f", i, got[i].Similarity, got[i-1].Similarity)
		}
	}
	if got[0].ChunkID != "1_1" || got[1].ChunkID != "3_0" || got[2].ChunkID != "2_0" {
		t.Errorf("unexpected order: %s %s %s", got[0].ChunkID, got[1].ChunkID, got[2].ChunkID)
	}
}

func TestRank_FloorDropsWeakHits(t *testing.T) {
	records := []models.EmbeddingRecord{
		rec(1, 0, 1, 0),
		rec(1, 1, 1, 0.1),
		rec(1, 2, 1, 0.2),
		rec(1, 3, 0, 1),
		rec(1, 4, -1, 0),
	}
	got := Rank(records, []float32{1, 0}, 10)
	if len(got) != 3 {
		t.Fatalf("len = %d, want the 3 hits above the floor", len(got))
	}
	for _, r := range got {
		if r.Similarity <= SimilarityFloor {
			t.Errorf("hit %s below floor kept: %f", r.ChunkID, r.Similarity)
		}
	}
}

func TestRank_BackfillsToMinimum(t *testing.T) {
	records := []models.EmbeddingRecord{
		rec(1, 0, 0, 1),
		rec(1, 1, 0, 1),
		rec(1, 2, -1, 0),
		rec(1, 3, 1, 0),
		rec(1, 4, 0, -1),
	}
	got := Rank(records, []float32{1, 0}, 10)
	if len(got) != MinResults {
		t.Fatalf("len = %d, want %d", len(got), MinResults)
	}
	if got[0].ChunkID != "1_3" {
		t.Errorf("best hit should lead, got %s", got[0].ChunkID)
	}
}

func TestRank_AllBelowFloorStillReturns(t *testing.T) {
	records := []models.EmbeddingRecord{rec(1, 0, 0, 1), rec(1, 1, 0, 1), rec(1, 2, 0, 1), rec(1, 3, 0, 1)}
	if got := Rank(records, []float32{1, 0}, 10); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	if got := Rank(records[:2], []float32{1, 0}, 10); len(got) != 2 {
		t.Errorf("fewer records than the minimum: len = %d, want 2", len(got))
	}
	if got := Rank(records, []float32{1, 0}, 1); len(got) != 1 {
		t.Errorf("topK below the minimum: len = %d, want 1", len(got))
	}
}

func TestRank_MismatchedDimensionScoresZero(t *testing.T) {
	records := []models.EmbeddingRecord{rec(1, 0, 1, 0, 0), rec(1, 1, 1, 0)}
	got := Rank(records, []float32{1, 0}, 10)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ChunkID != "1_1" || got[1].Similarity != 0 {
		t.Errorf("mismatched record should rank last with 0: %+v", got)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, []float32{1}, 10); got != nil {
		t.Errorf("got %v", got)
	}
	if got := Rank([]models.EmbeddingRecord{rec(1, 0, 1)}, []float32{1}, 0); got != nil {
		t.Errorf("topK 0: got %v", got)
	}
}
