// Package emuios provides a gomobile-compatible interface to the host. The
// app drives frames from its display link; audio is pulled with
// GetAudioData after each frame.
package emuios

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user-none/eblitui/romloader"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/cores"
	"github.com/user-none/eclipsekit/host"
	"github.com/user-none/eclipsekit/savefile"
	"github.com/user-none/eclipsekit/storage"
)

// ExtractResult contains the result of game extraction
type ExtractResult struct {
	GameID   string // CRC32 hex string, e.g., "cbf43926"
	Filename string // Original filename from archive, e.g., "Tones (World).psgs"
}

// currentEmu holds the emulator state (unexported)
var currentEmu *emulatorState

type emulatorState struct {
	coord     *host.Coordinator
	input     *host.SharedInput
	frameData []byte
	audioData []byte
	audioLen  int
}

// InitFromPath sets up a core for systemName and starts the game at path.
// coreID may be empty to use the preferred core. savePath may be empty.
// Returns true on success, false on error.
func InitFromPath(path, savePath, systemName, coreID string) bool {
	Close()

	sys, ok := core.ParseSystem(systemName)
	if !ok {
		return false
	}
	reg, err := cores.NewRegistry()
	if err != nil {
		return false
	}
	info, err := reg.Preferred(sys)
	if coreID != "" {
		info, ok = reg.Get(coreID)
		if !ok {
			return false
		}
	} else if err != nil {
		return false
	}

	input := &host.SharedInput{}
	coord, err := host.NewCoordinator(info, host.Options{
		System: sys,
		Sink:   host.PullSink{},
		Input:  input,
	})
	if err != nil {
		return false
	}
	if err := coord.Start(path, savePath); err != nil {
		coord.Close()
		return false
	}

	format := coord.Framebuffer().Format()
	currentEmu = &emulatorState{
		coord:     coord,
		input:     input,
		frameData: make([]byte, format.BufferSize()),
		audioData: make([]byte, coord.Audio().Stats().Capacity),
	}
	return true
}

// Close releases the emulator.
func Close() {
	if currentEmu == nil {
		return
	}
	currentEmu.coord.Close()
	currentEmu = nil
}

// RunFrame executes one frame and caches its pixels and audio.
func RunFrame() {
	if currentEmu == nil {
		return
	}
	currentEmu.coord.Advance(1)
	currentEmu.coord.Framebuffer().ReadRGBA(currentEmu.frameData)
	currentEmu.audioLen = currentEmu.coord.Audio().Drain(currentEmu.audioData)
}

// FrameWidth returns the display width.
func FrameWidth() int {
	if currentEmu == nil {
		return 0
	}
	return int(currentEmu.coord.Framebuffer().Format().Width)
}

// FrameHeight returns the display height.
func FrameHeight() int {
	if currentEmu == nil {
		return 0
	}
	return int(currentEmu.coord.Framebuffer().Format().Height)
}

// GetFrameData returns the last frame as RGBA.
func GetFrameData() []byte {
	if currentEmu == nil {
		return nil
	}
	return currentEmu.frameData
}

// GetAudioData returns the audio produced by the last frame in the core's
// native format.
func GetAudioData() []byte {
	if currentEmu == nil {
		return nil
	}
	return currentEmu.audioData[:currentEmu.audioLen]
}

// SampleRate returns the core's audio sample rate.
func SampleRate() int {
	if currentEmu == nil {
		return 0
	}
	return int(currentEmu.coord.Audio().Format().SampleRate)
}

// GetFPS returns the core's frame rate.
func GetFPS() float64 {
	if currentEmu == nil {
		return 0
	}
	return currentEmu.coord.FrameRate()
}

// SetInput sets a player's input bitmask using core input bit positions.
func SetInput(player int, buttons int) {
	if currentEmu == nil {
		return
	}
	currentEmu.input.Set(player, core.Input(buttons)&core.InputAll)
}

// ConnectPlayer registers an additional controller. Returns false when the
// core has no free slot.
func ConnectPlayer(player int) bool {
	if currentEmu == nil || player < 0 || player > 255 {
		return false
	}
	return currentEmu.coord.ConnectPlayer(uint8(player))
}

// Reset restarts the game.
func Reset() {
	if currentEmu != nil {
		currentEmu.coord.Reset()
	}
}

// EnterBackground pauses emulation while the app is not active.
func EnterBackground() {
	if currentEmu != nil {
		currentEmu.coord.Pause(host.CoordinatorBackgrounded)
	}
}

// EnterForeground resumes emulation paused by EnterBackground.
func EnterForeground() {
	if currentEmu != nil {
		currentEmu.coord.Play(host.CoordinatorBackgrounded)
	}
}

// SaveState writes a save state to path. Returns true on success.
func SaveState(path string) bool {
	if currentEmu == nil {
		return false
	}
	return currentEmu.coord.SaveState(path) == nil
}

// LoadState restores a save state from path. Returns true on success.
func LoadState(path string) bool {
	if currentEmu == nil {
		return false
	}
	return currentEmu.coord.LoadState(path) == nil
}

// SaveBattery writes the battery save to the path given at init.
func SaveBattery() bool {
	if currentEmu == nil {
		return false
	}
	return currentEmu.coord.Save("") == nil
}

// GetCRC32FromPath calculates the game ID of a file, extracting it from an
// archive if needed. Returns an empty string on error.
func GetCRC32FromPath(path, extensions string) string {
	data, _, err := romloader.Load(path, splitExtensions(extensions))
	if err != nil {
		return ""
	}
	return storage.GameID(data)
}

// ExtractAndStoreROM extracts a game from an archive (or copies a raw file)
// and stores it as {destDir}/{GameID}{ext}. If a file with the same ID
// already exists, it skips writing. extensions is a comma-separated list
// whose first entry names the stored file.
func ExtractAndStoreROM(srcPath, destDir, extensions string) (*ExtractResult, error) {
	exts := splitExtensions(extensions)
	data, filename, err := romloader.Load(srcPath, exts)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	id := storage.GameID(data)
	ext := ""
	if len(exts) > 0 {
		ext = exts[0]
	}
	destPath := filepath.Join(destDir, id+ext)

	// Same ID means same content
	if savefile.OS.Exists(destPath) {
		return &ExtractResult{GameID: id, Filename: filename}, nil
	}
	if err := savefile.OS.WriteAtomic(destPath, data); err != nil {
		return nil, fmt.Errorf("failed to write game: %w", err)
	}
	return &ExtractResult{GameID: id, Filename: filename}, nil
}

func splitExtensions(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
