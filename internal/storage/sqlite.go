// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		file_type TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL,
		status TEXT NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(collection_id, status);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertDocument inserts doc or resets the existing row for the same collection and id.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection_id, id, file_type, file_path, status, chunk_count, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection_id, id) DO UPDATE SET
			file_type = excluded.file_type,
			file_path = excluded.file_path,
			status = excluded.status,
			chunk_count = excluded.chunk_count,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		doc.CollectionID, doc.ID, doc.FileType, doc.FilePath, string(doc.Status), doc.ChunkCount, doc.Error,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document %d: %w", doc.ID, err)
	}
	return nil
}

// UpdateStatus sets the ingestion outcome of a registered document.
func (s *SQLiteStorage) UpdateStatus(ctx context.Context, collectionID, id int64, status models.DocumentStatus, chunkCount int, errMsg string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, chunk_count = ?, error = ?, updated_at = ?
		 WHERE collection_id = ? AND id = ?`,
		string(status), chunkCount, errMsg, time.Now().UTC(), collectionID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: collection %d document %d", ErrDocumentNotFound, collectionID, id)
	}
	return nil
}

const documentColumns = `collection_id, id, file_type, file_path, status, chunk_count, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var status string
	if err := row.Scan(&doc.CollectionID, &doc.ID, &doc.FileType, &doc.FilePath, &status,
		&doc.ChunkCount, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatus(status)
	return &doc, nil
}

// GetDocument returns a registered document.
func (s *SQLiteStorage) GetDocument(ctx context.Context, collectionID, id int64) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection_id = ? AND id = ?`, collectionID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: collection %d document %d", ErrDocumentNotFound, collectionID, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a registration. Deleting an unknown document is not an error.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, collectionID, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection_id = ? AND id = ?`, collectionID, id)
	return err
}

// ListDocuments returns a collection's documents, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, collectionID int64, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		collectionID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of documents registered in the collection.
func (s *SQLiteStorage) CountDocuments(ctx context.Context, collectionID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection_id = ?`, collectionID).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
