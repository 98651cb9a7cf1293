package vector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteIndex stores records in one table keyed by collection. Writes run in a
// transaction, so replace-by-document is atomic.
type SQLiteIndex struct {
	db         *sql.DB
	dimensions int
}

// NewSQLiteIndex opens or creates the database at dbPath.
func NewSQLiteIndex(dbPath string, dimensions int) (*SQLiteIndex, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_txlock=immediate")
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
	return &SQLiteIndex{db: db, dimensions: dimensions}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL,
		document_id INTEGER NOT NULL,
		chunk_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		UNIQUE (collection_id, document_id, chunk_id)
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_collection_document ON embeddings(collection_id, document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Load returns the collection's records in insertion order.
func (s *SQLiteIndex) Load(ctx context.Context, collectionID int64) ([]models.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_id, chunk_index, start_offset, end_offset, text, embedding
		FROM embeddings WHERE collection_id = ? ORDER BY seq`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("query collection %d: %w", collectionID, err)
	}
	defer rows.Close()

	var records []models.EmbeddingRecord
	for rows.Next() {
		var r models.EmbeddingRecord
		var blob []byte
		if err := rows.Scan(&r.DocumentID, &r.ChunkID, &r.Metadata.ChunkIndex,
			&r.Metadata.Start, &r.Metadata.End, &r.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Metadata.DocumentID = r.DocumentID
		r.Embedding = bytesToFloat32Slice(blob)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteIndex) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, collectionID int64, records []models.EmbeddingRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (collection_id, document_id, chunk_id, chunk_index, start_offset, end_offset, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, collectionID, r.DocumentID, r.ChunkID, r.Metadata.ChunkIndex,
			r.Metadata.Start, r.Metadata.End, r.Text, float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", r.ChunkID, err)
		}
	}
	return nil
}

// Save replaces all records of the collection.
func (s *SQLiteIndex) Save(ctx context.Context, collectionID int64, records []models.EmbeddingRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE collection_id = ?`, collectionID); err != nil {
			return fmt.Errorf("clear collection %d: %w", collectionID, err)
		}
		return insertRecords(ctx, tx, collectionID, records)
	})
}

// AddDocument replaces the document's records.
func (s *SQLiteIndex) AddDocument(ctx context.Context, collectionID, documentID int64, records []models.EmbeddingRecord) error {
	if err := checkRecords(s.dimensions, documentID, records); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE collection_id = ? AND document_id = ?`,
			collectionID, documentID); err != nil {
			return fmt.Errorf("delete document %d: %w", documentID, err)
		}
		return insertRecords(ctx, tx, collectionID, records)
	})
}

// RemoveDocument drops the document's records.
func (s *SQLiteIndex) RemoveDocument(ctx context.Context, collectionID, documentID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE collection_id = ? AND document_id = ?`,
		collectionID, documentID)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", documentID, err)
	}
	return nil
}

// Search ranks the collection's records against query.
func (s *SQLiteIndex) Search(ctx context.Context, collectionID int64, query []float32, topK int) ([]models.ScoredRecord, error) {
	records, err := s.Load(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return Rank(records, query, topK), nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
