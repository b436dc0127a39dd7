package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user-none/eclipsekit/core"
)

// CoordinatorState orders the reasons a coordinator may not be running.
// Pause only moves to a higher state and Play only resumes from a state at
// or below its reason, so a game paused by the user stays paused when the
// window returns to the foreground.
type CoordinatorState uint8

const (
	CoordinatorStopped CoordinatorState = iota
	CoordinatorRunning
	CoordinatorBackgrounded
	CoordinatorPendingUserInput
	CoordinatorPaused
)

func (s CoordinatorState) String() string {
	switch s {
	case CoordinatorStopped:
		return "stopped"
	case CoordinatorRunning:
		return "running"
	case CoordinatorBackgrounded:
		return "backgrounded"
	case CoordinatorPendingUserInput:
		return "pending user input"
	case CoordinatorPaused:
		return "paused"
	default:
		return fmt.Sprintf("CoordinatorState(%d)", uint8(s))
	}
}

// Speed is an emulation rate multiplier.
type Speed float64

const (
	Speed0_50 Speed = 0.5
	Speed0_75 Speed = 0.75
	Speed1_00 Speed = 1
	Speed1_25 Speed = 1.25
	Speed1_50 Speed = 1.5
	Speed1_75 Speed = 1.75
	Speed2_00 Speed = 2
)

// Speeds lists the supported rates in ascending order.
var Speeds = []Speed{Speed0_50, Speed0_75, Speed1_00, Speed1_25, Speed1_50, Speed1_75, Speed2_00}

func (s Speed) valid() bool {
	for _, v := range Speeds {
		if s == v {
			return true
		}
	}
	return false
}

// maxCatchupFrames bounds how far behind wall time the frame loop may fall
// before it drops time instead of emulating it.
const maxCatchupFrames = 5

// runTickInterval is how often Run wakes to step the core.
const runTickInterval = 4 * time.Millisecond

var (
	ErrCoordinatorClosed = errors.New("coordinator closed")
	ErrInvalidSpeed      = errors.New("invalid emulation speed")
)

// InputSource supplies controller state for each emulated frame.
type InputSource interface {
	Input(frame uint64, player uint8) core.Input
}

// Input implements InputSource over the latest UI state.
func (si *SharedInput) Input(frame uint64, player uint8) core.Input {
	if int(player) >= MaxSharedPlayers {
		return core.InputNone
	}
	si.mu.Lock()
	in := si.buttons[player]
	si.mu.Unlock()
	return in
}

// Options configures a Coordinator.
type Options struct {
	System core.System

	// BufferMs is the audio latency; zero selects DefaultBufferMs.
	BufferMs int

	// Sink receives audio. Nil discards it.
	Sink Sink

	// Input supplies controller state. Nil leaves every player idle.
	Input InputSource

	// OnSave is called after the core reports a completed battery save.
	OnSave func(path string)

	// Now replaces the wall clock.
	Now func() time.Time
}

// CoordinatorStats is a snapshot of frame loop counters.
type CoordinatorStats struct {
	State    CoordinatorState
	Speed    Speed
	Frames   uint64
	Rendered uint64
	Audio    AudioStats
}

// Coordinator owns one core instance and drives it: it paces frames
// against the wall clock, routes audio into an AudioRenderer, copies
// rendered frames to a SharedFramebuffer and forwards lifecycle requests.
// Every call into the core happens under one mutex.
type Coordinator struct {
	mu sync.Mutex

	info   core.Info
	system core.System
	core   core.Core
	audio  *AudioRenderer
	sink   Sink
	input  InputSource
	fb     *SharedFramebuffer
	video  []byte
	onSave func(string)
	now    func() time.Time

	state     CoordinatorState
	connected []bool
	closed    bool

	frameInterval     float64
	coreFrameDuration float64
	initialTime       time.Time
	time              float64
	speed             Speed

	frames   uint64
	rendered uint64
}

// NewCoordinator sets up a core from info and wires it to a renderer and
// sink. The core is ready but not started.
func NewCoordinator(info core.Info, opts Options) (*Coordinator, error) {
	c := &Coordinator{
		info:   info,
		system: opts.System,
		sink:   opts.Sink,
		input:  opts.Input,
		onSave: opts.OnSave,
		now:    opts.Now,
		speed:  Speed1_00,
	}
	if c.sink == nil {
		c.sink = &NullSink{}
	}
	if c.now == nil {
		c.now = time.Now
	}

	callbacks := core.Callbacks{
		WriteAudio: func(buf []byte, sampleCount int) int {
			return c.audio.WriteAudio(buf, sampleCount)
		},
		DidSave: c.didSave,
	}
	inst, err := info.New(opts.System, callbacks)
	if err != nil {
		return nil, err
	}

	audio, err := NewAudioRenderer(inst.AudioFormat(), opts.BufferMs)
	if err != nil {
		inst.Deallocate()
		return nil, fmt.Errorf("%s: %w", info.ID, err)
	}
	// Audio flows only once Start plays the core.
	audio.Pause()

	c.core = inst
	c.audio = audio
	c.fb = NewSharedFramebuffer(inst.VideoFormat())
	if inst.CanSetVideoPointer() {
		c.video = inst.VideoBuffer(make([]byte, inst.VideoFormat().BufferSize()))
	} else {
		c.video = inst.VideoBuffer(nil)
	}
	c.connected = make([]bool, inst.MaxPlayers())
	return c, nil
}

func (c *Coordinator) didSave(path string) {
	log.Printf("saved %s", path)
	if c.onSave != nil {
		c.onSave(path)
	}
}

// Info returns the metadata of the running core.
func (c *Coordinator) Info() core.Info { return c.info }

// System returns the emulated system.
func (c *Coordinator) System() core.System { return c.system }

// Audio returns the renderer carrying the core's audio.
func (c *Coordinator) Audio() *AudioRenderer { return c.audio }

// Framebuffer returns the shared copy of the latest rendered frame.
func (c *Coordinator) Framebuffer() *SharedFramebuffer { return c.fb }

// Frame returns a snapshot of the latest rendered frame.
func (c *Coordinator) Frame() ([]byte, uint64) { return c.fb.Read() }

// FrameRate returns the core's native frame rate.
func (c *Coordinator) FrameRate() float64 { return c.core.DesiredFrameRate() }

// State returns the coordinator state.
func (c *Coordinator) State() CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start loads the game, starts audio output and begins running.
func (c *Coordinator) Start(gamePath, savePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}

	if err := c.core.Start(gamePath, savePath); err != nil {
		return err
	}
	c.frameInterval = 1 / c.core.DesiredFrameRate()
	c.coreFrameDuration = c.frameInterval / float64(c.speed)

	if err := c.sink.Start(c.audio); err != nil {
		log.Printf("warning: audio output unavailable: %v", err)
		c.sink = &NullSink{}
		c.sink.Start(c.audio)
	}

	if len(c.connected) > 0 && !c.connected[0] {
		c.connected[0] = c.core.PlayerConnected(0)
	}
	c.play(CoordinatorStopped)
	return nil
}

// Stop ends emulation. The core stays allocated until Close.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.audio.Pause()
	c.core.Stop()
	c.state = CoordinatorStopped
}

// Reset restarts the game from power-on. A paused coordinator stays paused
// for the same reason; a stopped one is left alone.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == CoordinatorStopped {
		return
	}
	running := c.state == CoordinatorRunning
	if running {
		c.audio.Pause()
	}
	c.audio.Clear()
	c.core.Restart()
	if running {
		c.initialTime = c.now()
		c.time = 0
		c.audio.Resume()
	}
}

// Play resumes emulation if the coordinator was paused for reason or a
// lesser one.
func (c *Coordinator) Play(reason CoordinatorState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.play(reason)
}

func (c *Coordinator) play(reason CoordinatorState) {
	if c.state > reason {
		return
	}
	c.state = CoordinatorRunning
	c.core.Play()
	c.audio.Resume()
	c.initialTime = c.now()
	c.time = 0
}

// Pause suspends emulation for reason. A weaker reason than the current
// one is ignored; CoordinatorStopped always applies.
func (c *Coordinator) Pause(reason CoordinatorState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.state >= reason && reason != CoordinatorStopped {
		return
	}
	c.state = reason
	c.audio.Pause()
	c.core.Pause()
}

// SetSpeed changes the emulation rate.
func (c *Coordinator) SetSpeed(s Speed) error {
	if !s.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, float64(s))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = s
	c.coreFrameDuration = c.frameInterval / float64(s)
	return nil
}

// Speed returns the emulation rate.
func (c *Coordinator) Speed() Speed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Step emulates the frames owed for elapsed time since the last Play. When
// the loop has fallen behind it catches up by at most maxCatchupFrames and
// only the final frame of a batch is rendered. It returns the number of
// frames run.
func (c *Coordinator) Step(elapsed time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != CoordinatorRunning || c.coreFrameDuration <= 0 {
		return 0
	}

	expected := elapsed.Seconds()
	c.time = max(c.time, expected-maxCatchupFrames*c.coreFrameDuration)

	frames := 0
	for t := c.time; t <= expected; t += c.coreFrameDuration {
		frames++
	}
	for i := range frames {
		c.time += c.coreFrameDuration
		c.executeFrame(i == frames-1)
	}
	c.pumpAudio()
	return frames
}

// Tick steps the core against the wall clock.
func (c *Coordinator) Tick() int {
	c.mu.Lock()
	elapsed := c.now().Sub(c.initialTime)
	c.mu.Unlock()
	return c.Step(elapsed)
}

// Advance runs n frames immediately, rendering every one. It ignores pacing
// and is meant for headless capture and tests.
func (c *Coordinator) Advance(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != CoordinatorRunning {
		return 0
	}
	for range n {
		c.executeFrame(true)
		c.pumpAudio()
	}
	return n
}

// executeFrame runs one frame. Caller holds mu.
func (c *Coordinator) executeFrame(render bool) {
	if c.input != nil {
		for p, ok := range c.connected {
			if ok {
				c.core.PlayerSetInputs(uint8(p), c.input.Input(c.frames, uint8(p)))
			}
		}
	}
	c.core.ExecuteFrame(render)
	c.frames++
	if render {
		c.fb.Update(c.video)
		c.rendered++
	}
}

func (c *Coordinator) pumpAudio() {
	if err := c.sink.Pump(); err != nil {
		log.Printf("warning: audio sink: %v", err)
	}
}

// Run steps the core until ctx is cancelled or the coordinator closes.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(runTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return nil
			}
			c.Tick()
		}
	}
}

// Save writes the battery save. An empty path uses the one given to Start.
func (c *Coordinator) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	if err := c.core.Save(path); err != nil {
		log.Printf("warning: failed to save: %v", err)
		return err
	}
	return nil
}

// SaveState writes a save state to path.
func (c *Coordinator) SaveState(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	return c.core.SaveState(path)
}

// LoadState restores a save state from path.
func (c *Coordinator) LoadState(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	return c.core.LoadState(path)
}

// SetCheats replaces the active cheats, validating them against the core's
// declared formats first.
func (c *Coordinator) SetCheats(cheats []core.Cheat) error {
	if len(c.info.CheatFormats) > 0 {
		if err := core.ValidateCheats(c.info.CheatFormats, cheats); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	return c.core.SetCheats(cheats)
}

// ApplySetting changes a core setting after setup.
func (c *Coordinator) ApplySetting(id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	a, ok := c.core.(core.SettingsApplier)
	if !ok {
		return fmt.Errorf("settings: %w", core.ErrUnsupported)
	}
	return a.ApplySetting(id, value)
}

// ConnectPlayer attaches a controller to player and reports whether the
// core accepted it.
func (c *Coordinator) ConnectPlayer(player uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || int(player) >= len(c.connected) || c.connected[player] {
		return false
	}
	if !c.core.PlayerConnected(player) {
		return false
	}
	c.connected[player] = true
	return true
}

// DisconnectPlayer detaches player's controller.
func (c *Coordinator) DisconnectPlayer(player uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || int(player) >= len(c.connected) || !c.connected[player] {
		return
	}
	c.core.PlayerDisconnected(player)
	c.connected[player] = false
}

// Stats returns frame and audio counters.
func (c *Coordinator) Stats() CoordinatorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CoordinatorStats{
		State:    c.state,
		Speed:    c.speed,
		Frames:   c.frames,
		Rendered: c.rendered,
		Audio:    c.audio.Stats(),
	}
}

// Close stops emulation, closes the sink and releases the core.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.audio.Pause()
	c.core.Stop()
	c.state = CoordinatorStopped
	err := c.sink.Close()
	c.core.Deallocate()
	c.audio.Close()
	return err
}
