package models

import (
	"fmt"
	"strings"
)

// IngestRequest asks for a document file to be indexed into a collection.
type IngestRequest struct {
	DocumentID   int64  `json:"documentId"`
	CollectionID int64  `json:"collectionId"`
	FilePath     string `json:"filePath"`
	FileType     string `json:"fileType"`
}

// Validate checks that the request names a document, a collection, and a file.
func (r *IngestRequest) Validate() error {
	if r.DocumentID <= 0 {
		return fmt.Errorf("document id must be positive")
	}
	if r.CollectionID <= 0 {
		return fmt.Errorf("collection id must be positive")
	}
	if strings.TrimSpace(r.FilePath) == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	return nil
}

// AnswerRequest is a question asked against one collection.
type AnswerRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects an empty one.
func (r *AnswerRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}
