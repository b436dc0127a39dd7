// Package core defines the contract between an emulation core and its host:
// the formats a core produces, the inputs it accepts, the lifecycle it
// follows, and the metadata and factory hosts use to discover it.
//
// All methods on a Core are called from a single goroutine (the host's
// coordinator serialises them). The only cross-goroutine traffic is the
// audio delivered through Callbacks.WriteAudio into the host's ring buffer.
package core

// Formats reports the fixed output geometry of a core.
type Formats interface {
	AudioFormat() AudioFormat
	VideoFormat() VideoFormat
	DesiredFrameRate() float64
}

// VideoOutput exposes the framebuffer a core renders into.
type VideoOutput interface {
	// CanSetVideoPointer reports whether VideoBuffer accepts host memory.
	CanSetVideoPointer() bool

	// VideoBuffer returns the buffer the core will render the next frame
	// into. When preferred is non-nil, at least VideoFormat().BufferSize()
	// bytes long, and the core accepts host memory, the core adopts it and
	// returns it. Otherwise the core's own buffer is returned.
	VideoBuffer(preferred []byte) []byte
}

// Lifecycle drives a core through its states.
type Lifecycle interface {
	// Start loads the game (and optional battery save) and begins
	// execution. Valid only from StateReady.
	Start(gamePath, savePath string) error

	// Stop ends execution. Stopping an already stopped core is a no-op.
	Stop()

	// Restart resets the loaded game to power-on.
	Restart()

	Play()
	Pause()

	// ExecuteFrame advances the virtual machine by one frame. Audio is
	// always delivered; the framebuffer is only written when willRender is
	// true. Nothing happens unless the core is running.
	ExecuteFrame(willRender bool)
}

// Persistence stores battery saves and save states. Implementations must
// leave any existing file untouched on failure.
type Persistence interface {
	Save(path string) error
	SaveState(path string) error
	LoadState(path string) error
}

// Controls manages connected players and their input.
type Controls interface {
	MaxPlayers() uint8

	// PlayerConnected takes a player slot. Only the number of connected
	// players is bounded by MaxPlayers; the index itself is not checked. It
	// returns false once every slot is taken.
	PlayerConnected(player uint8) bool

	// PlayerDisconnected releases a player. The count never goes below zero.
	PlayerDisconnected(player uint8)

	PlayerSetInputs(player uint8, input Input)
}

// Cheats replaces the active cheat set.
type Cheats interface {
	// SetCheats swaps in the given set atomically. On error the previous
	// set stays active.
	SetCheats(cheats []Cheat) error
}

// Core is a fully set up emulation core instance.
type Core interface {
	Formats
	VideoOutput
	Lifecycle
	Persistence
	Controls
	Cheats

	// Deallocate releases every resource the core holds. It must be called
	// exactly once and the core must not be used afterwards.
	Deallocate()
}

// SettingsApplier is implemented by cores whose declared settings can be
// changed by the host after setup. Boolean settings take "true" or "false";
// file settings take a path.
type SettingsApplier interface {
	ApplySetting(id, value string) error
}
