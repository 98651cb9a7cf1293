package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

const lockRetryDelay = 25 * time.Millisecond

// FileIndex stores each collection as a JSON array in collection_<id>.json.
// Writers hold an in-process mutex and an flock on collection_<id>.json.lock for
// the whole load-modify-save cycle, and commit by renaming a temp file, so
// readers never see a partial file and concurrent ingestions do not lose updates.
type FileIndex struct {
	dir        string
	dimensions int
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.RWMutex
}

// FileIndexOption configures a FileIndex.
type FileIndexOption func(*FileIndex)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) FileIndexOption {
	return func(f *FileIndex) { f.logger = l }
}

// NewFileIndex creates dir if needed and returns an index rooted there.
func NewFileIndex(dir string, dimensions int, opts ...FileIndexOption) (*FileIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	f := &FileIndex{dir: dir, dimensions: dimensions, locks: make(map[int64]*sync.RWMutex)}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = utils.OrNop(f.logger)
	return f, nil
}

// Path returns the JSON file of a collection.
func (f *FileIndex) Path(collectionID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("collection_%d.json", collectionID))
}

func (f *FileIndex) lockFor(collectionID int64) *sync.RWMutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[collectionID]
	if !ok {
		l = &sync.RWMutex{}
		f.locks[collectionID] = l
	}
	return l
}

// Load reads the collection file. A missing file is an empty collection.
func (f *FileIndex) Load(ctx context.Context, collectionID int64) ([]models.EmbeddingRecord, error) {
	l := f.lockFor(collectionID)
	l.RLock()
	defer l.RUnlock()
	return f.read(collectionID)
}

func (f *FileIndex) read(collectionID int64) ([]models.EmbeddingRecord, error) {
	data, err := os.ReadFile(f.Path(collectionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %d: %w", collectionID, err)
	}
	var records []models.EmbeddingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode collection %d: %w", collectionID, err)
	}
	return records, nil
}

func (f *FileIndex) write(collectionID int64, records []models.EmbeddingRecord) error {
	if records == nil {
		records = []models.EmbeddingRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode collection %d: %w", collectionID, err)
	}
	tmp, err := os.CreateTemp(f.dir, fmt.Sprintf("collection_%d.*.tmp", collectionID))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path(collectionID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit collection %d: %w", collectionID, err)
	}
	return nil
}

// update runs fn on the current records under both locks and writes the result.
func (f *FileIndex) update(ctx context.Context, collectionID int64, fn func([]models.EmbeddingRecord) []models.EmbeddingRecord) error {
	l := f.lockFor(collectionID)
	l.Lock()
	defer l.Unlock()

	fl := flock.New(f.Path(collectionID) + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock collection %d: %w", collectionID, err)
	}
	if !locked {
		return fmt.Errorf("lock collection %d: not acquired", collectionID)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			f.logger.Warn("vector: unlock failed", zap.Int64("collection_id", collectionID), zap.Error(err))
		}
	}()

	current, err := f.read(collectionID)
	if err != nil {
		return err
	}
	next := fn(current)
	if err := f.write(collectionID, next); err != nil {
		return err
	}
	f.logger.Debug("vector: collection written",
		zap.Int64("collection_id", collectionID), zap.Int("records", len(next)))
	return nil
}

// Save replaces all records of the collection.
func (f *FileIndex) Save(ctx context.Context, collectionID int64, records []models.EmbeddingRecord) error {
	return f.update(ctx, collectionID, func([]models.EmbeddingRecord) []models.EmbeddingRecord {
		return records
	})
}

// AddDocument replaces the document's records.
func (f *FileIndex) AddDocument(ctx context.Context, collectionID, documentID int64, records []models.EmbeddingRecord) error {
	if err := checkRecords(f.dimensions, documentID, records); err != nil {
		return err
	}
	return f.update(ctx, collectionID, func(current []models.EmbeddingRecord) []models.EmbeddingRecord {
		return replaceDocument(current, documentID, records)
	})
}

// RemoveDocument drops the document's records.
func (f *FileIndex) RemoveDocument(ctx context.Context, collectionID, documentID int64) error {
	return f.update(ctx, collectionID, func(current []models.EmbeddingRecord) []models.EmbeddingRecord {
		return replaceDocument(current, documentID, nil)
	})
}

// Search ranks the collection's records against query.
func (f *FileIndex) Search(ctx context.Context, collectionID int64, query []float32, topK int) ([]models.ScoredRecord, error) {
	records, err := f.Load(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return Rank(records, query, topK), nil
}

// Close is a no-op; files are closed after each operation.
func (f *FileIndex) Close() error {
	return nil
}
