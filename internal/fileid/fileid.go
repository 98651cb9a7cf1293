// Package fileid maps between document identities and the names used for them
// in the index and in the upload inbox.
package fileid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotInboxPath is returned for paths not shaped <inbox>/<collectionId>/<documentId>.<ext>.
var ErrNotInboxPath = errors.New("not an inbox document path")

// ChunkID returns the id of a document's chunk: "<documentId>_<chunkIndex>".
func ChunkID(documentID int64, chunkIndex int) string {
	return fmt.Sprintf("%d_%d", documentID, chunkIndex)
}

// ParseInboxPath extracts the collection and document ids from a file under inbox.
// Both ids must be positive integers.
func ParseInboxPath(inbox, path string) (collectionID, documentID int64, err error) {
	rel, err := filepath.Rel(filepath.Clean(inbox), filepath.Clean(path))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotInboxPath, path)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotInboxPath, path)
	}
	collectionID, err = parseID(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: collection %q", ErrNotInboxPath, parts[0])
	}
	name := parts[1]
	documentID, err = parseID(strings.TrimSuffix(name, filepath.Ext(name)))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: document %q", ErrNotInboxPath, name)
	}
	return collectionID, documentID, nil
}

// InboxPath is the inverse of ParseInboxPath. ext may be given with or without the dot.
func InboxPath(inbox string, collectionID, documentID int64, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(inbox, strconv.FormatInt(collectionID, 10), strconv.FormatInt(documentID, 10)+ext)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive: %d", id)
	}
	return id, nil
}
