// Package tonecore is a playable core built on an SN76489 programmable sound
// generator. Games are register-write scripts; the screen shows one level
// bar per channel and the face buttons mute channels.
package tonecore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"math"
	"strconv"

	"github.com/user-none/eblitui/romloader"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/savefile"
	"github.com/user-none/go-chip-sn76489"
)

const (
	ID        = "dev.magnetar.tonecore"
	Name      = "Tone Core"
	Developer = "Magnetar"
	Version   = "1.0.0"

	SampleRate = 48000
	MaxPlayers = 1

	psgClockHz = 3579545
)

// Extensions lists the game file extensions the core loads.
var Extensions = []string{".psgs"}

// SettingLoop controls whether playback restarts after the last frame.
const SettingLoop = "tonecore.loop"

// Compile-time interface checks.
var (
	_ core.Core            = (*Core)(nil)
	_ core.SettingsApplier = (*Core)(nil)
)

// Info describes the tone core.
var Info = core.Info{
	ID:            ID,
	Name:          Name,
	Developer:     Developer,
	Version:       Version,
	SourceCodeURL: "https://github.com/user-none/eclipsekit",
	Systems: []core.System{
		core.SystemGB, core.SystemGBC, core.SystemGBA, core.SystemNES, core.SystemSNES,
	},
	Settings: core.Settings{
		Version: 1,
		Items: []core.Setting{{
			ID:          SettingLoop,
			System:      core.SystemUnknown,
			DisplayName: "Loop Playback",
			Payload:     core.BooleanSetting{Default: true},
		}},
	},
	CheatFormats: cheatFormats,
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
	region Region
	store  *savefile.Store
}

// WithAllocator supplies the allocator for the audio and video buffers.
func WithAllocator(a core.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithRegion selects 50 Hz timing on home consoles.
func WithRegion(r Region) Option {
	return func(o *options) { o.region = r }
}

// WithStore directs battery saves and save states to store.
func WithStore(s *savefile.Store) Option {
	return func(o *options) { o.store = s }
}

// Core is a tone core instance.
type Core struct {
	core.StateMachine

	system    core.System
	geometry  Geometry
	callbacks core.Callbacks
	alloc     core.Allocator
	store     *savefile.Store

	psg *sn76489.SN76489
	mix *mixer

	audio []byte
	video []byte

	clocksFP  int
	remainder int

	script   *script
	gameCRC  uint32
	savePath string
	cursor   int
	frame    uint64
	hold     bool
	loop     bool
	cheats   []byte

	players core.PlayerSlots
}

// New sets up a tone core for system. On failure nothing stays allocated.
func New(system core.System, callbacks core.Callbacks, opts ...Option) (*Core, error) {
	o := options{alloc: core.DefaultAllocator, store: savefile.OS}
	for _, opt := range opts {
		opt(&o)
	}

	geo, ok := GeometryFor(system, o.region)
	if !ok {
		return nil, fmt.Errorf("unsupported system %s", system)
	}

	// One stereo int16 frame for every sample the chip can buffer.
	audio, err := o.alloc.Alloc(psgBufferSize(geo.FPS) * 4)
	if err != nil {
		return nil, fmt.Errorf("audio buffer: %w", err)
	}
	video, err := o.alloc.Alloc(geo.Width * geo.Height * 4)
	if err != nil {
		o.alloc.Free(audio)
		return nil, fmt.Errorf("video buffer: %w", err)
	}

	c := &Core{
		system:    system,
		geometry:  geo,
		callbacks: callbacks,
		alloc:     o.alloc,
		store:     o.store,
		audio:     audio,
		video:     video,
		clocksFP:  clocksPerFrameFP(geo.FPS),
		loop:      true,
		players:   core.NewPlayerSlots(MaxPlayers),
	}
	c.resetChip()
	renderBars(c.video, geo.Width, geo.Height, [channels]int{})
	c.MarkReady()
	return c, nil
}

func (c *Core) resetChip() {
	c.psg = sn76489.New(psgClockHz, SampleRate, psgBufferSize(c.geometry.FPS), sn76489.Sega)
	c.mix = newMixer(c.psg)
	c.remainder = 0
}

// Geometry returns the screen size and refresh rate in use.
func (c *Core) Geometry() Geometry { return c.geometry }

func (c *Core) AudioFormat() core.AudioFormat {
	return core.AudioFormat{
		CommonFormat:  core.AudioFormatPCMInt16,
		SampleRate:    SampleRate,
		ChannelCount:  2,
		IsInterleaved: true,
	}
}

func (c *Core) VideoFormat() core.VideoFormat {
	return core.VideoFormat{
		RenderingType: core.VideoRenderingFrameBuffer,
		PixelFormat:   core.PixelFormatBGRA8Unorm,
		Width:         uint32(c.geometry.Width),
		Height:        uint32(c.geometry.Height),
	}
}

func (c *Core) DesiredFrameRate() float64 { return c.geometry.FPS }

// CanSetVideoPointer is false: the core always renders into its own buffer.
func (c *Core) CanSetVideoPointer() bool { return false }

func (c *Core) VideoBuffer(preferred []byte) []byte { return c.video }

// Start loads the script at gamePath and, when savePath names an existing
// battery save, resumes from its cursor.
func (c *Core) Start(gamePath, savePath string) error {
	if c.State() != core.StateReady {
		return fmt.Errorf("%w: cannot start from %s", core.ErrInvalidState, c.State())
	}
	if err := core.CheckStartPaths(c.store.Fs(), gamePath, savePath); err != nil {
		return err
	}

	data, _, err := romloader.Load(gamePath, Extensions)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPathUnusable, err)
	}
	s, err := parseScript(data)
	if err != nil {
		return err
	}
	c.script = s
	c.gameCRC = crc32.ChecksumIEEE(data)
	c.savePath = savePath

	if savePath != "" {
		battery, err := c.store.ReadFile(savePath)
		switch {
		case err == nil:
			cursor, err := c.decodeBattery(battery)
			if err != nil {
				return fmt.Errorf("%s: %w", savePath, err)
			}
			c.cursor = cursor
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %w", core.ErrPathUnusable, err)
		}
	}

	return c.Begin()
}

func (c *Core) Stop() { c.End() }

// Restart rewinds the script and resets the chip.
func (c *Core) Restart() {
	if !c.Active() {
		return
	}
	muted := c.mix.muted
	c.resetChip()
	for ch, m := range muted {
		c.mix.setMuted(ch, m)
	}
	c.cursor = 0
	c.frame = 0
}

func (c *Core) Play()  { c.Resume() }
func (c *Core) Pause() { c.Suspend() }

// ExecuteFrame applies one frame of script writes followed by active
// cheats, clocks the chip for a frame and delivers the audio.
func (c *Core) ExecuteFrame(willRender bool) {
	if !c.CanExecute() {
		return
	}

	if !c.hold {
		for _, b := range c.script.frames[c.cursor] {
			c.mix.write(b)
		}
		c.advance()
	}
	for _, b := range c.cheats {
		c.mix.write(b)
	}

	c.remainder += c.clocksFP
	clocks := c.remainder >> 16
	c.remainder &= 0xFFFF

	c.psg.GenerateSamples(clocks)
	samples, count := c.psg.GetBuffer()
	n := 0
	for _, s := range samples[:count] {
		v := uint16(int16(math.Max(-1, math.Min(1, float64(s))) * 32767 * 0.5))
		binary.LittleEndian.PutUint16(c.audio[n:], v)
		binary.LittleEndian.PutUint16(c.audio[n+2:], v)
		n += 4
	}
	c.callbacks.EmitAudio(c.audio[:n], count*2)
	c.frame++

	if willRender {
		var levels [channels]int
		for ch := range levels {
			levels[ch] = c.mix.level(ch)
		}
		renderBars(c.video, c.geometry.Width, c.geometry.Height, levels)
	}
}

// advance moves the cursor to the next frame, wrapping or parking at the
// end depending on the loop setting.
func (c *Core) advance() {
	next := c.cursor + 1
	if next < len(c.script.frames) {
		c.cursor = next
		return
	}
	if c.loop {
		c.cursor = 0
	}
}

// Frame returns the number of frames executed since start or restart.
func (c *Core) Frame() uint64 { return c.frame }

// Cursor returns the index of the next script frame to play.
func (c *Core) Cursor() int { return c.cursor }

// Save writes the battery file to path, or to the save path given to Start
// when path is empty, and notifies the host.
func (c *Core) Save(path string) error {
	if !c.Active() {
		return fmt.Errorf("%w: no game loaded", core.ErrInvalidState)
	}
	if path == "" {
		path = c.savePath
	}
	if path == "" {
		return fmt.Errorf("%w: no save path", core.ErrPathUnusable)
	}
	if err := c.store.WriteAtomic(path, c.encodeBattery()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPathUnusable, err)
	}
	c.callbacks.NotifySaved(path)
	return nil
}

// SaveState writes a snapshot to path.
func (c *Core) SaveState(path string) error {
	if !c.Active() {
		return fmt.Errorf("%w: no game loaded", core.ErrInvalidState)
	}
	if err := c.store.WriteAtomic(path, c.serialize()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPathUnusable, err)
	}
	return nil
}

// LoadState restores a snapshot. The current state is untouched unless the
// file is a valid state for the loaded game.
func (c *Core) LoadState(path string) error {
	if !c.Active() {
		return fmt.Errorf("%w: no game loaded", core.ErrInvalidState)
	}
	data, err := c.store.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPathUnusable, err)
	}
	if err := c.verifyState(data); err != nil {
		return err
	}
	c.deserialize(data)
	return nil
}

func (c *Core) MaxPlayers() uint8 { return MaxPlayers }

func (c *Core) PlayerConnected(player uint8) bool { return c.players.Connect(player) }

func (c *Core) PlayerDisconnected(player uint8) {
	c.players.Disconnect(player)
	if player == 0 {
		c.applyInput(core.InputNone)
	}
}

// PlayerSetInputs maps player one's face buttons to channel mutes and Start
// to holding the script in place.
func (c *Core) PlayerSetInputs(player uint8, input core.Input) {
	c.players.SetInput(player, input)
	if player == 0 {
		c.applyInput(input)
	}
}

var muteButtons = [channels]core.Input{
	core.InputFaceButtonUp,
	core.InputFaceButtonDown,
	core.InputFaceButtonLeft,
	core.InputFaceButtonRight,
}

func (c *Core) applyInput(input core.Input) {
	if c.mix == nil {
		return
	}
	for ch, btn := range muteButtons {
		c.mix.setMuted(ch, input.Has(btn))
	}
	c.hold = input.Has(core.InputStartButton)
}

// SetCheats replaces the active register-write cheats. Invalid input leaves
// the previous set in place.
func (c *Core) SetCheats(cheats []core.Cheat) error {
	writes, err := compileCheats(cheats)
	if err != nil {
		return err
	}
	c.cheats = writes
	return nil
}

// ApplySetting changes a declared setting.
func (c *Core) ApplySetting(id, value string) error {
	switch id {
	case SettingLoop:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		c.loop = v
		return nil
	default:
		return fmt.Errorf("%w: %s", core.ErrUnknownSetting, id)
	}
}

// Deallocate releases the audio and video buffers.
func (c *Core) Deallocate() {
	c.End()
	if c.audio != nil {
		c.alloc.Free(c.audio)
		c.audio = nil
	}
	if c.video != nil {
		c.alloc.Free(c.video)
		c.video = nil
	}
}
