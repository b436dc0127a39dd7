// Package adapter exposes an eclipsekit core through the eblitui core
// interfaces so the shared standalone and libretro frontends can drive it.
package adapter

import (
	"fmt"
	"math"
	"sync"

	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/eclipsekit/core"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// buttonMap maps eblitui button IDs (bit positions 4 and up) to core
// inputs. Bits 0-3 are the d-pad and are mapped separately.
var buttonMap = []struct {
	emucore.Button
	input core.Input
}{
	{emucore.Button{Name: "A", ID: 4, DefaultKey: "J", DefaultPad: "A"}, core.InputFaceButtonRight},
	{emucore.Button{Name: "B", ID: 5, DefaultKey: "K", DefaultPad: "B"}, core.InputFaceButtonDown},
	{emucore.Button{Name: "X", ID: 6, DefaultKey: "U", DefaultPad: "X"}, core.InputFaceButtonUp},
	{emucore.Button{Name: "Y", ID: 7, DefaultKey: "I", DefaultPad: "Y"}, core.InputFaceButtonLeft},
	{emucore.Button{Name: "L", ID: 8, DefaultKey: "Q", DefaultPad: "LB"}, core.InputShoulderLeft},
	{emucore.Button{Name: "R", ID: 9, DefaultKey: "E", DefaultPad: "RB"}, core.InputShoulderRight},
	{emucore.Button{Name: "Start", ID: 10, DefaultKey: "Enter", DefaultPad: "Start"}, core.InputStartButton},
	{emucore.Button{Name: "Select", ID: 11, DefaultKey: "Backspace", DefaultPad: "Back"}, core.InputSelectButton},
}

// ButtonInput converts an eblitui button bitmask to a core input.
func ButtonInput(buttons uint32) core.Input {
	var in core.Input
	if buttons&(1<<emucore.ButtonUp) != 0 {
		in |= core.InputDpadUp
	}
	if buttons&(1<<emucore.ButtonDown) != 0 {
		in |= core.InputDpadDown
	}
	if buttons&(1<<emucore.ButtonLeft) != 0 {
		in |= core.InputDpadLeft
	}
	if buttons&(1<<emucore.ButtonRight) != 0 {
		in |= core.InputDpadRight
	}
	for _, b := range buttonMap {
		if buttons&(1<<b.ID) != 0 {
			in |= b.input
		}
	}
	return in
}

// Factory implements emucore.CoreFactory for one core on one system.
type Factory struct {
	Info       core.Info
	System     core.System
	Extensions []string

	probeOnce sync.Once
	formats   coreFormats
	probeErr  error
}

type coreFormats struct {
	audio   core.AudioFormat
	video   core.VideoFormat
	fps     float64
	players uint8
}

// NewFactory returns a factory that sets up info for sys. extensions lists
// the game file extensions offered by the frontend's file picker.
func NewFactory(info core.Info, sys core.System, extensions []string) *Factory {
	return &Factory{Info: info, System: sys, Extensions: extensions}
}

// probe sets up a throwaway instance to learn the core's fixed formats.
func (f *Factory) probe() (coreFormats, error) {
	f.probeOnce.Do(func() {
		c, err := f.Info.New(f.System, core.Callbacks{})
		if err != nil {
			f.probeErr = err
			return
		}
		defer c.Deallocate()
		f.formats = coreFormats{
			audio:   c.AudioFormat(),
			video:   c.VideoFormat(),
			fps:     c.DesiredFrameRate(),
			players: c.MaxPlayers(),
		}
	})
	return f.formats, f.probeErr
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	p, _ := f.probe()

	buttons := make([]emucore.Button, len(buttonMap))
	for i, b := range buttonMap {
		buttons[i] = b.Button
	}

	aspect := 1.0
	if p.video.Height > 0 {
		aspect = float64(p.video.Width) / float64(p.video.Height)
	}

	return emucore.SystemInfo{
		Name:            "eclipsekit",
		ConsoleName:     f.System.String(),
		Extensions:      f.Extensions,
		ScreenWidth:     int(p.video.Width),
		MaxScreenHeight: int(p.video.Height),
		AspectRatio:     aspect,
		SampleRate:      int(p.audio.SampleRate),
		Buttons:         buttons,
		Players:         int(p.players),
		CoreOptions:     coreOptions(f.Info.Settings.ForSystem(f.System)),
		DataDirName:     "eclipsekit",
		CoreName:        f.Info.Name,
		CoreVersion:     f.Info.Version,
	}
}

// coreOptions lists the boolean settings as toggles. File settings have no
// eblitui equivalent and are left to the host configuration.
func coreOptions(settings []core.Setting) []emucore.CoreOption {
	var opts []emucore.CoreOption
	for _, s := range settings {
		b, ok := s.Payload.(core.BooleanSetting)
		if !ok {
			continue
		}
		opts = append(opts, emucore.CoreOption{
			Key:      s.ID,
			Label:    s.DisplayName,
			Type:     emucore.CoreOptionBool,
			Default:  fmt.Sprint(b.Default),
			Category: emucore.CoreOptionCategoryCore,
		})
	}
	return opts
}

// CreateEmulator sets up a core instance for rom. The game is started on
// the first frame so a battery save supplied through SetSRAM is loaded.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	ext := ""
	if len(f.Extensions) > 0 {
		ext = f.Extensions[0]
	}
	return newEmulator(f.Info, f.System, rom, ext, region)
}

// DetectRegion reports NTSC; cores choose their own timing per system.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emucore.RegionNTSC, false
}

func fpsOf(rate float64) int {
	return int(math.Round(rate))
}
