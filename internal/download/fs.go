package download

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Filesystem is the subset of file operations the downloader needs.
type Filesystem interface {
	Exists(path string) (bool, error)
	Create(path string) (io.WriteCloser, error)
	Remove(path string) error
}

// OSFilesystem works on the real filesystem relative to the working directory.
type OSFilesystem struct{}

// Exists reports whether anything is present at path.
func (OSFilesystem) Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create truncates or creates path for writing, making parent directories.
func (OSFilesystem) Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes path.
func (OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}
