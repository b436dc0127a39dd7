// Package storage keeps the host's configuration, game library and save
// directories under a per-user data directory.
package storage

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"

	"github.com/user-none/eclipsekit/savefile"
)

// AppName is the data directory name.
const AppName = "eclipsekit"

const (
	configFile  = "config.json"
	libraryFile = "library.json"
	savesDir    = "saves"
	captureDir  = "captures"
)

// store is where every file in this package is read and written.
var store = savefile.OS

// UseStore redirects storage to s. Used by tests and embedders that keep
// data somewhere other than the OS filesystem.
func UseStore(s *savefile.Store) {
	store = s
}

// GetBaseDir returns the base directory for application data:
//   - macOS: ~/Library/Application Support/eclipsekit
//   - Linux: $XDG_DATA_HOME/eclipsekit or ~/.local/share/eclipsekit
//   - Windows: %APPDATA%/eclipsekit
func GetBaseDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		baseDir = filepath.Join(appData, AppName)
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			baseDir = filepath.Join(dataHome, AppName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			baseDir = filepath.Join(home, ".local", "share", AppName)
		}
	}

	return baseDir, nil
}

// EnsureDirectories creates the data directory tree.
func EnsureDirectories() error {
	baseDir, err := GetBaseDir()
	if err != nil {
		return err
	}

	for _, dir := range []string{
		baseDir,
		filepath.Join(baseDir, savesDir),
		filepath.Join(baseDir, captureDir),
	} {
		if err := store.Fs().MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func join(name ...string) (string, error) {
	baseDir, err := GetBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{baseDir}, name...)...), nil
}

// GetConfigPath returns the full path to config.json.
func GetConfigPath() (string, error) { return join(configFile) }

// GetLibraryPath returns the full path to library.json.
func GetLibraryPath() (string, error) { return join(libraryFile) }

// GetSavesDir returns the directory holding per-game save directories.
func GetSavesDir() (string, error) { return join(savesDir) }

// GetCaptureDir returns the directory for audio captures.
func GetCaptureDir() (string, error) { return join(captureDir) }

// GetGameSaveDir returns the save directory for one game.
func GetGameSaveDir(gameID string) (string, error) { return join(savesDir, gameID) }

// GameID identifies a game by the CRC32 of its contents.
func GameID(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}
