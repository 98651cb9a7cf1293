package vector

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// IndexType names a VectorIndex backend.
type IndexType string

const (
	// IndexTypeJSON writes one JSON file per collection. This is the default.
	IndexTypeJSON IndexType = "json"
	// IndexTypeSQLite keeps every collection in a single SQLite database.
	IndexTypeSQLite IndexType = "sqlite"
	// IndexTypeMemory keeps collections in process memory only.
	IndexTypeMemory IndexType = "memory"
)

// sqliteFileName is the SQLite backend's database inside the index directory.
const sqliteFileName = "embeddings.db"

// NewVectorIndex creates the backend named by indexType rooted at dir.
func NewVectorIndex(indexType, dir string, dimensions int, logger *zap.Logger) (VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	switch IndexType(indexType) {
	case IndexTypeJSON, "":
		return NewFileIndex(dir, dimensions, WithLogger(logger))
	case IndexTypeSQLite:
		return NewSQLiteIndex(filepath.Join(dir, sqliteFileName), dimensions)
	case IndexTypeMemory:
		return NewMemoryIndex(dimensions), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: json, sqlite, memory)", indexType)
	}
}
