package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// CheckGamePath verifies that path names a readable regular file.
func CheckGamePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty game path", ErrPathUnusable)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPathUnusable, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrPathUnusable, path)
	}
	return nil
}

// CheckSavePath verifies that a save could be written at path on fsys. A
// missing parent directory is fine since saves create it; an existing
// directory at path is not. An empty path means "no save" and is valid.
func CheckSavePath(fsys afero.Fs, path string) error {
	if path == "" {
		return nil
	}
	fi, err := fsys.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrPathUnusable, err)
	case fi.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrPathUnusable, path)
	}
	return nil
}

// CheckStartPaths validates the arguments to Lifecycle.Start. The game is
// read from disk; the save path is checked against fsys, where saves go.
func CheckStartPaths(fsys afero.Fs, gamePath, savePath string) error {
	if err := CheckGamePath(gamePath); err != nil {
		return err
	}
	return CheckSavePath(fsys, savePath)
}
