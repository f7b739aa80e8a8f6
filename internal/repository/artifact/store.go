// Package artifact stores serialized index generations on the filesystem.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
)

// FileStore writes one file per generation under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("artifact dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the artifact path of generation.
func (s *FileStore) Path(generation string) string {
	return filepath.Join(s.Dir, "index-"+generation+".ivf")
}

// Save serializes idx to a temp file, syncs it, and renames it into place.
// Readers never observe a partial artifact.
func (s *FileStore) Save(generation string, idx *ivf.Index) (string, error) {
	path := s.Path(generation)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := idx.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return path, nil
}

// Open reads the artifact at path. A missing or unreadable file is
// domain.ErrIndexUnavailable; a malformed one is domain.ErrCorruptArtifact.
func (s *FileStore) Open(path string) (*ivf.Index, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the registry
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifact %s not found", domain.ErrIndexUnavailable, path)
		}
		return nil, fmt.Errorf("%w: open artifact: %w", domain.ErrIndexUnavailable, err)
	}
	defer f.Close()

	idx, err := ivf.Read(f)
	if err != nil {
		if domain.IsConfiguration(err) {
			return nil, fmt.Errorf("read artifact %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: read artifact %s: %w", domain.ErrIndexUnavailable, path, err)
	}
	return idx, nil
}
