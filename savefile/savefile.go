// Package savefile writes battery saves, save states and host documents so
// that a file is never observed half-written: data goes to a temporary file
// in the target directory which is then renamed over the target.
package savefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store performs durable file operations on a filesystem.
type Store struct {
	fs afero.Fs
}

// New returns a Store backed by fs.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// OS is the Store for the real filesystem.
var OS = New(afero.NewOsFs())

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// WriteAtomic replaces path with data. On any failure the previous contents
// of path, if any, are left untouched and the temporary file is removed.
func (s *Store) WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ReadFile returns the contents of path.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

// Remove deletes path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteJSON marshals v with indentation and writes it atomically.
func (s *Store) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return s.WriteAtomic(path, data)
}

// ReadJSON reads path and unmarshals it into v.
func (s *Store) ReadJSON(path string, v any) error {
	data, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
