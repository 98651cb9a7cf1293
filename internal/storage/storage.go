// Package storage defines the persistence interface for the document registry.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrDocumentNotFound is returned when a document is not registered in the collection.
var ErrDocumentNotFound = errors.New("document not found")

// Storage records which documents each collection holds and how their
// ingestion went.
type Storage interface {
	// UpsertDocument registers doc, or resets an existing registration to doc's
	// type, path, and status while keeping its creation time.
	UpsertDocument(ctx context.Context, doc *models.Document) error
	// UpdateStatus records the outcome of an ingestion.
	UpdateStatus(ctx context.Context, collectionID, id int64, status models.DocumentStatus, chunkCount int, errMsg string) error
	GetDocument(ctx context.Context, collectionID, id int64) (*models.Document, error)
	DeleteDocument(ctx context.Context, collectionID, id int64) error
	ListDocuments(ctx context.Context, collectionID int64, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context, collectionID int64) (int64, error)

	Close() error
}
