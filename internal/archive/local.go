package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)

// LocalStore keeps archived media on local disk. Suitable for development
// and single-node deployments; swap for S3Store in production.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local store rooted at dir. If dir is empty a
// directory under os.TempDir() is used. The directory is created if it does
// not exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "genbridge-archive")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	return &LocalStore{dir: dir}, nil
}

// Dir returns the archive directory path.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the data to a file named after key and returns a file URL.
// Key is flattened to its base name so callers cannot escape the archive
// directory.
func (s *LocalStore) Save(ctx context.Context, key string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := filepath.Join(s.dir, filepath.Base(key))
	f, err := os.Create(path) // #nosec G304 - path is confined to the archive dir
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close archive file: %w", err)
	}

	return "file://" + path, nil
}
