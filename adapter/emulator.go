package adapter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/spf13/afero"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/savefile"
)

// Compile-time interface checks.
var (
	_ emucore.Emulator     = (*Emulator)(nil)
	_ emucore.SaveStater   = (*Emulator)(nil)
	_ emucore.BatterySaver = (*Emulator)(nil)
)

// Emulator drives one core instance for an eblitui frontend. The frontend
// owns pacing; each RunFrame executes and renders exactly one frame.
type Emulator struct {
	core   core.Core
	store  *savefile.Store
	dir    string
	region emucore.Region

	gamePath    string
	batteryPath string
	statePath   string
	started     bool
	startErr    error

	audioFormat core.AudioFormat
	videoFormat core.VideoFormat
	video       []byte
	rgba        []byte
	samples     []int16
	connected   []bool
}

func newEmulator(info core.Info, sys core.System, rom []byte, ext string, region emucore.Region) (*Emulator, error) {
	store := savefile.OS
	dir, err := afero.TempDir(store.Fs(), "", "eclipsekit-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	e := &Emulator{
		store:       store,
		dir:         dir,
		region:      region,
		gamePath:    filepath.Join(dir, "game"+ext),
		batteryPath: filepath.Join(dir, "battery.sav"),
		statePath:   filepath.Join(dir, "snapshot.state"),
	}
	if err := store.WriteAtomic(e.gamePath, rom); err != nil {
		store.Fs().RemoveAll(dir)
		return nil, err
	}

	c, err := info.New(sys, core.Callbacks{WriteAudio: e.writeAudio})
	if err != nil {
		store.Fs().RemoveAll(dir)
		return nil, err
	}
	e.core = c
	e.audioFormat = c.AudioFormat()
	e.videoFormat = c.VideoFormat()
	e.rgba = make([]byte, e.videoFormat.BufferSize())
	e.video = c.VideoBuffer(nil)
	e.connected = make([]bool, c.MaxPlayers())
	if len(e.connected) > 0 {
		e.connected[0] = c.PlayerConnected(0)
	}
	return e, nil
}

// start loads the game on first use.
func (e *Emulator) start() error {
	if e.started {
		return e.startErr
	}
	e.started = true

	savePath := ""
	if e.store.Exists(e.batteryPath) {
		savePath = e.batteryPath
	}
	if err := e.core.Start(e.gamePath, savePath); err != nil {
		e.startErr = err
		log.Printf("failed to start core: %v", err)
		return err
	}
	e.video = e.core.VideoBuffer(nil)
	return nil
}

// writeAudio converts one frame of core audio to interleaved int16 stereo.
func (e *Emulator) writeAudio(buf []byte, sampleCount int) int {
	ch := int(e.audioFormat.ChannelCount)
	if ch < 1 {
		return 0
	}
	for i := 0; i < sampleCount; i += ch {
		var l, r int16
		switch e.audioFormat.CommonFormat {
		case core.AudioFormatPCMInt16:
			if (i+ch)*2 > len(buf) {
				return len(buf)
			}
			l = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			r = l
			if ch > 1 {
				r = int16(binary.LittleEndian.Uint16(buf[(i+1)*2:]))
			}
		case core.AudioFormatPCMFloat32:
			if (i+ch)*4 > len(buf) {
				return len(buf)
			}
			l = floatToInt16(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
			r = l
			if ch > 1 {
				r = floatToInt16(math.Float32frombits(binary.LittleEndian.Uint32(buf[(i+1)*4:])))
			}
		default:
			return 0
		}
		e.samples = append(e.samples, l, r)
	}
	return len(buf)
}

func floatToInt16(v float32) int16 {
	return int16(max(-1, min(1, v)) * 32767)
}

// RunFrame executes one frame and converts the framebuffer to RGBA.
func (e *Emulator) RunFrame() {
	e.samples = e.samples[:0]
	if e.start() != nil {
		return
	}
	e.core.ExecuteFrame(true)
	bgraToRGBA(e.rgba, e.video)
}

// bgraToRGBA swaps the red and blue channels of src into dst.
func bgraToRGBA(dst, src []byte) {
	n := min(len(dst), len(src))
	for i := 0; i+3 < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// GetFramebuffer returns the last frame as RGBA.
func (e *Emulator) GetFramebuffer() []byte { return e.rgba }

func (e *Emulator) GetFramebufferStride() int { return int(e.videoFormat.Stride()) }

func (e *Emulator) GetActiveHeight() int { return int(e.videoFormat.Height) }

// GetAudioSamples returns the last frame's audio as int16 stereo.
func (e *Emulator) GetAudioSamples() []int16 { return e.samples }

// SetInput sets the input for player, connecting the player if needed.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player < 0 || player >= len(e.connected) {
		return
	}
	p := uint8(player)
	if !e.connected[player] {
		if buttons == 0 {
			return
		}
		e.connected[player] = e.core.PlayerConnected(p)
	}
	e.core.PlayerSetInputs(p, ButtonInput(buttons))
}

func (e *Emulator) GetRegion() emucore.Region { return e.region }

// SetRegion records the region. Timing is fixed per core and system.
func (e *Emulator) SetRegion(region emucore.Region) { e.region = region }

func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{FPS: fpsOf(e.core.DesiredFrameRate())}
}

// SetOption applies a core setting when the core accepts settings.
func (e *Emulator) SetOption(key string, value string) {
	applier, ok := e.core.(core.SettingsApplier)
	if !ok {
		return
	}
	if err := applier.ApplySetting(key, value); err != nil {
		log.Printf("failed to apply option %s=%s: %v", key, value, err)
	}
}

// Close stops the core and removes the work directory.
func (e *Emulator) Close() {
	if e.core == nil {
		return
	}
	e.core.Stop()
	e.core.Deallocate()
	e.core = nil
	e.store.Fs().RemoveAll(e.dir)
}

// Serialize captures a save state through the core's file interface.
func (e *Emulator) Serialize() ([]byte, error) {
	if err := e.start(); err != nil {
		return nil, err
	}
	if err := e.core.SaveState(e.statePath); err != nil {
		return nil, err
	}
	return e.store.ReadFile(e.statePath)
}

// Deserialize restores a save state captured by Serialize.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.start(); err != nil {
		return err
	}
	if err := e.store.WriteAtomic(e.statePath, data); err != nil {
		return err
	}
	return e.core.LoadState(e.statePath)
}

// HasSRAM reports whether the core can write a battery save.
func (e *Emulator) HasSRAM() bool {
	if e.start() != nil {
		return false
	}
	err := e.core.Save(e.batteryPath)
	return err == nil || !errors.Is(err, core.ErrUnsupported)
}

// GetSRAM returns the current battery save, or nil when there is none.
func (e *Emulator) GetSRAM() []byte {
	if e.start() != nil {
		return nil
	}
	if err := e.core.Save(e.batteryPath); err != nil {
		return nil
	}
	data, err := e.store.ReadFile(e.batteryPath)
	if err != nil {
		return nil
	}
	return data
}

// SetSRAM stages a battery save to be loaded when the game starts. It has
// no effect once the first frame has run.
func (e *Emulator) SetSRAM(data []byte) {
	if e.started {
		log.Printf("battery save ignored: game already started")
		return
	}
	if err := e.store.WriteAtomic(e.batteryPath, data); err != nil {
		log.Printf("failed to stage battery save: %v", err)
	}
}
