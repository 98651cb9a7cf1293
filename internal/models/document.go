// Package models defines core data structures for documents, chunks, index records, and answers.
package models

import "time"

// DocumentStatus is the ingestion state of a registered document.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusIndexed DocumentStatus = "indexed"
	// StatusEmpty means extraction or chunking produced nothing to index.
	StatusEmpty  DocumentStatus = "empty"
	StatusFailed DocumentStatus = "failed"
)

// Document is an uploaded file registered for a collection.
type Document struct {
	ID           int64          `json:"id" db:"id"`
	CollectionID int64          `json:"collectionId" db:"collection_id"`
	FileType     string         `json:"fileType" db:"file_type"`
	FilePath     string         `json:"filePath" db:"file_path"`
	Status       DocumentStatus `json:"status" db:"status"`
	ChunkCount   int            `json:"chunkCount" db:"chunk_count"`
	Error        string         `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// Chunk is a span of cleaned document text. Start and End are rune offsets, End exclusive.
type Chunk struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ChunkMetadata locates a record's chunk inside its source document.
type ChunkMetadata struct {
	DocumentID int64 `json:"documentId"`
	ChunkIndex int   `json:"chunkIndex"`
	Start      int   `json:"start"`
	End        int   `json:"end"`
}

// EmbeddingRecord is the unit stored in a collection index. The JSON shape is
// the on-disk format of the file backend.
type EmbeddingRecord struct {
	DocumentID int64         `json:"documentId"`
	ChunkID    string        `json:"chunkId"`
	Text       string        `json:"text"`
	Embedding  []float32     `json:"embedding"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// ScoredRecord is a search hit: a record plus its similarity to the query.
type ScoredRecord struct {
	EmbeddingRecord
	Similarity float64 `json:"similarity"`
}
