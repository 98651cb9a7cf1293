// Package indexer provides document chunking and the ingestion pipeline.
package indexer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrInvalidChunkSettings is returned when size is not positive or overlap is
// outside [0, size).
var ErrInvalidChunkSettings = errors.New("invalid chunk settings")

// Chunker splits text into overlapping windows that prefer to end on a
// sentence or line boundary.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(size, overlap int) (*Chunker, error) {
	if err := checkSettings(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text using the chunker's settings.
func (c *Chunker) Chunk(text string) []models.Chunk {
	return chunk([]rune(text), c.size, c.overlap)
}

// Chunk splits text into windows of at most size characters. A window is cut
// after its last '.' or '\n' when that boundary lies past half the window.
// Consecutive windows overlap by up to overlap characters. Chunks whose text
// is blank are dropped; the rest carry their trimmed text and the rune offsets
// of the untrimmed window.
func Chunk(text string, size, overlap int) ([]models.Chunk, error) {
	if err := checkSettings(size, overlap); err != nil {
		return nil, err
	}
	return chunk([]rune(text), size, overlap), nil
}

func checkSettings(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidChunkSettings, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunkSettings, overlap, size)
	}
	return nil
}

func chunk(r []rune, size, overlap int) []models.Chunk {
	var chunks []models.Chunk
	start := 0
	for start < len(r) {
		end := min(start+size, len(r))
		if end < len(r) {
			if cut := lastBreak(r[start:end]); cut*2 > size {
				end = start + cut + 1
			}
		}
		if text := strings.TrimSpace(string(r[start:end])); text != "" {
			chunks = append(chunks, models.Chunk{Text: text, Start: start, End: end})
		}
		if end >= len(r) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
