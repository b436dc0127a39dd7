package host

import (
	"sync"

	"github.com/user-none/eclipsekit/core"
)

// MaxSharedPlayers bounds the players a SharedInput tracks.
const MaxSharedPlayers = 4

// SharedInput holds controller state written by the UI goroutine and read
// by the frame loop.
type SharedInput struct {
	mu      sync.Mutex
	buttons [MaxSharedPlayers]core.Input
}

// Set updates the input for a player. Out-of-range players are ignored.
func (si *SharedInput) Set(player int, input core.Input) {
	if player < 0 || player >= MaxSharedPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = input
	si.mu.Unlock()
}

// Read returns the current input for all players.
func (si *SharedInput) Read() [MaxSharedPlayers]core.Input {
	si.mu.Lock()
	result := si.buttons
	si.mu.Unlock()
	return result
}

// SharedFramebuffer holds a copy of the core's framebuffer. The frame loop
// writes after each rendered frame; the presenter reads a snapshot that
// stays valid until its next Read.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte
	readPixels  []byte
	format      core.VideoFormat
	frame       uint64
}

// NewSharedFramebuffer allocates buffers for format.
func NewSharedFramebuffer(format core.VideoFormat) *SharedFramebuffer {
	size := format.BufferSize()
	return &SharedFramebuffer{
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
		format:      format,
	}
}

// Format returns the geometry of the held frame.
func (sf *SharedFramebuffer) Format() core.VideoFormat {
	return sf.format
}

// Update copies pixels from the frame loop.
func (sf *SharedFramebuffer) Update(pixels []byte) {
	sf.mu.Lock()
	copy(sf.writePixels, pixels)
	sf.frame++
	sf.mu.Unlock()
}

// Read returns a snapshot of the latest frame and its sequence number. The
// returned slice is owned by the SharedFramebuffer and is overwritten by the
// next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, frame uint64) {
	sf.mu.Lock()
	copy(sf.readPixels, sf.writePixels)
	frame = sf.frame
	sf.mu.Unlock()
	return sf.readPixels, frame
}

// ReadRGBA converts the latest BGRA frame into dst as RGBA and returns its
// sequence number. dst must hold at least Format().BufferSize() bytes.
func (sf *SharedFramebuffer) ReadRGBA(dst []byte) uint64 {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	src := sf.writePixels
	n := min(len(dst), len(src))
	for i := 0; i+3 < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	return sf.frame
}
