// Package attachment stores complaint attachments on local disk and
// hands back opaque filename references.
package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore writes attachments under a single upload directory. The
// returned reference is the generated filename, used verbatim as the
// complaint's attachment path.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a store rooted at dir
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Store writes the attachment and returns its filename reference. The
// original name is kept in the reference for download friendliness but
// prefixed with a UUID to avoid collisions and traversal.
func (s *DiskStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	filename := uuid.New().String() + "_" + filepath.Base(originalName)
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	return filename, nil
}

// Open returns the stored file for serving. The reference must be a
// bare filename produced by Store.
func (s *DiskStore) Open(reference string) (*os.File, error) {
	if reference != filepath.Base(reference) {
		return nil, fmt.Errorf("invalid attachment reference")
	}
	return os.Open(filepath.Join(s.dir, reference))
}
