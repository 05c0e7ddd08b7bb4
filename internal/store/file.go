package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

// ErrNoSnapshotFile is returned by Load when the output file does not exist yet.
var ErrNoSnapshotFile = errors.New("snapshot file not found")

// FileStore persists the snapshot set as a JSON array. Each write replaces the
// file atomically: readers see either the previous set or the new one.
type FileStore struct {
	path string
	perm os.FileMode
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o644}
}

// Path returns the output file location.
func (s *FileStore) Path() string {
	return s.path
}

// WriteSnapshots encodes snapshots and swaps them into place via a temp file
// and rename in the same directory.
func (s *FileStore) WriteSnapshots(_ context.Context, snapshots []airquality.RegionSnapshot) error {
	if snapshots == nil {
		snapshots = []airquality.RegionSnapshot{}
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := renameio.WriteFile(s.path, data, s.perm); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Load reads the snapshot set back from disk.
func (s *FileStore) Load() ([]airquality.RegionSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshotFile
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var snapshots []airquality.RegionSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return snapshots, nil
}
