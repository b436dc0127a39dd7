// Package dummycore is a reference core that produces random audio and
// video. It exercises the host transport without emulating any hardware.
package dummycore

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/user-none/eclipsekit/core"
)

const (
	ID        = "dev.magnetar.dummycore"
	Name      = "Dummy Core"
	Developer = "Magnetar"
	Version   = "1.0.0"
)

const (
	MaxPlayers = 2

	VideoWidth  = 160
	VideoHeight = 144

	SampleRate   = 44100
	ChannelCount = 2
	FrameRate    = 30.0

	// SamplesPerFrame counts individual samples (both channels) delivered
	// by each ExecuteFrame.
	SamplesPerFrame = SampleRate / int(FrameRate) * ChannelCount

	audioBufferSize = SamplesPerFrame * 2
)

// Compile-time interface check.
var _ core.Core = (*Core)(nil)

// Info describes the dummy core. It supports every known system.
var Info = core.Info{
	ID:        ID,
	Name:      Name,
	Developer: Developer,
	Version:   Version,
	Systems: []core.System{
		core.SystemGB, core.SystemGBC, core.SystemGBA, core.SystemNES, core.SystemSNES,
	},
	Setup: func(system core.System, callbacks core.Callbacks) (core.Core, error) {
		c, err := New(system, callbacks)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
}

// Option configures a Core at construction.
type Option func(*options)

type options struct {
	alloc  core.Allocator
	seed   uint64
	seeded bool
}

// WithAllocator supplies the allocator for the audio and video buffers.
func WithAllocator(a core.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithSeed makes the generated content deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// Core is the dummy core instance.
type Core struct {
	core.StateMachine

	system    core.System
	callbacks core.Callbacks
	alloc     core.Allocator
	rng       *rand.Rand

	audio []byte
	// ownVideo is the buffer allocated at setup; video is the current
	// render target, which may be host memory.
	ownVideo []byte
	video    []byte

	players core.PlayerSlots
}

// New sets up a dummy core. On failure every buffer allocated so far is
// released and a nil core is returned.
func New(system core.System, callbacks core.Callbacks, opts ...Option) (*Core, error) {
	o := options{alloc: core.DefaultAllocator}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}

	audio, err := o.alloc.Alloc(audioBufferSize)
	if err != nil {
		return nil, fmt.Errorf("audio buffer: %w", err)
	}
	video, err := o.alloc.Alloc(VideoWidth * VideoHeight * 4)
	if err != nil {
		o.alloc.Free(audio)
		return nil, fmt.Errorf("video buffer: %w", err)
	}
	for i := range video {
		video[i] = 0xff
	}

	c := &Core{
		system:    system,
		callbacks: callbacks,
		alloc:     o.alloc,
		rng:       rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)),
		audio:     audio,
		ownVideo:  video,
		video:     video,
		players:   core.NewPlayerSlots(MaxPlayers),
	}
	c.MarkReady()
	return c, nil
}

// System returns the system the core was set up for.
func (c *Core) System() core.System { return c.system }

func (c *Core) AudioFormat() core.AudioFormat {
	return core.AudioFormat{
		CommonFormat:  core.AudioFormatPCMInt16,
		SampleRate:    SampleRate,
		ChannelCount:  ChannelCount,
		IsInterleaved: true,
	}
}

func (c *Core) VideoFormat() core.VideoFormat {
	return core.VideoFormat{
		RenderingType: core.VideoRenderingFrameBuffer,
		PixelFormat:   core.PixelFormatBGRA8Unorm,
		Width:         VideoWidth,
		Height:        VideoHeight,
	}
}

func (c *Core) DesiredFrameRate() float64 { return FrameRate }

func (c *Core) CanSetVideoPointer() bool { return true }

// VideoBuffer adopts preferred when it is large enough.
func (c *Core) VideoBuffer(preferred []byte) []byte {
	if preferred != nil && len(preferred) >= len(c.ownVideo) {
		c.video = preferred[:len(c.ownVideo)]
	}
	return c.video
}

// Start accepts any paths; the dummy core loads nothing.
func (c *Core) Start(gamePath, savePath string) error {
	return c.Begin()
}

func (c *Core) Stop()    { c.End() }
func (c *Core) Restart() {}
func (c *Core) Play()    { c.Resume() }
func (c *Core) Pause()   { c.Suspend() }

// ExecuteFrame fills the audio buffer with noise and hands it to the host.
// When willRender is set, every pixel becomes black or white; alpha is left
// as it was.
func (c *Core) ExecuteFrame(willRender bool) {
	if !c.CanExecute() {
		return
	}

	for i := 0; i+8 <= len(c.audio); i += 8 {
		binary.LittleEndian.PutUint64(c.audio[i:], c.rng.Uint64())
	}
	c.callbacks.EmitAudio(c.audio, SamplesPerFrame)

	if !willRender {
		return
	}
	for i := 0; i+3 < len(c.video); i += 4 {
		v := byte(c.rng.IntN(2)) * 0xff
		c.video[i+0] = v
		c.video[i+1] = v
		c.video[i+2] = v
	}
}

func (c *Core) Save(path string) error {
	return fmt.Errorf("save: %w", core.ErrUnsupported)
}

func (c *Core) SaveState(path string) error {
	return fmt.Errorf("save state: %w", core.ErrUnsupported)
}

func (c *Core) LoadState(path string) error {
	return fmt.Errorf("load state: %w", core.ErrUnsupported)
}

func (c *Core) MaxPlayers() uint8 { return MaxPlayers }

func (c *Core) PlayerConnected(player uint8) bool { return c.players.Connect(player) }

func (c *Core) PlayerDisconnected(player uint8) { c.players.Disconnect(player) }

// PlayerSetInputs records the input; the dummy core never reads it.
func (c *Core) PlayerSetInputs(player uint8, input core.Input) {
	c.players.SetInput(player, input)
}

// ConnectedPlayers returns the current player count.
func (c *Core) ConnectedPlayers() uint8 { return c.players.Count() }

func (c *Core) SetCheats(cheats []core.Cheat) error {
	return fmt.Errorf("cheats: %w", core.ErrUnsupported)
}

// Deallocate returns the core's own buffers to the allocator. Host memory
// adopted through VideoBuffer is not freed.
func (c *Core) Deallocate() {
	c.End()
	if c.audio != nil {
		c.alloc.Free(c.audio)
		c.audio = nil
	}
	if c.ownVideo != nil {
		c.alloc.Free(c.ownVideo)
		c.ownVideo = nil
	}
	c.video = nil
}
