// Package fileutil writes files that may hold credentials.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFileExists is returned by WriteFile when the target exists and overwriting is off.
var ErrFileExists = errors.New("file already exists")

// SecureFileWriter writes owner-only files (0600) inside owner-only directories (0700).
type SecureFileWriter struct {
	fileMode  os.FileMode
	dirMode   os.FileMode
	overwrite bool
}

// NewSecureFileWriter creates a writer. With overwrite false an existing file is left alone.
func NewSecureFileWriter(overwrite bool) *SecureFileWriter {
	return &SecureFileWriter{
		fileMode:  0o600,
		dirMode:   0o700,
		overwrite: overwrite,
	}
}

// WriteFile replaces path atomically: data goes to a temp file in the same directory which is
// then renamed over the target.
func (w *SecureFileWriter) WriteFile(path string, data []byte) error {
	if !w.overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirMode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(w.fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set secure permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
