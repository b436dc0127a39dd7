//go:build !libretro

// Package cli provides a windowed runner for a single game without the
// library UI. The coordinator paces frames on its own goroutine; the runner
// polls input and presents the latest frame.
package cli

import (
	"context"
	"errors"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	bridge "github.com/user-none/eclipsekit/bridge/ebiten"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/host"
)

// Runner implements ebiten.Game around a started coordinator.
type Runner struct {
	coord  *host.Coordinator
	input  *host.SharedInput
	screen *bridge.Screen
	slots  *host.SaveStateManager

	cancel context.CancelFunc
	done   chan error

	paused   bool
	focused  bool
	speedIdx int
}

// NewRunner wraps coord. input receives the polled controller state and
// must be the coordinator's input source. slots may be nil to disable save
// state hotkeys.
func NewRunner(coord *host.Coordinator, input *host.SharedInput, slots *host.SaveStateManager) *Runner {
	r := &Runner{
		coord:   coord,
		input:   input,
		screen:  bridge.NewScreen(coord.Framebuffer()),
		slots:   slots,
		focused: true,
	}
	for i, s := range host.Speeds {
		if s == coord.Speed() {
			r.speedIdx = i
		}
	}
	return r
}

// Start launches the frame loop.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan error, 1)
	go func() { r.done <- r.coord.Run(ctx) }()
}

// Close stops the frame loop and waits for it to exit.
func (r *Runner) Close() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	if err := <-r.done; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("frame loop: %v", err)
	}
	r.cancel = nil
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	focused := ebiten.IsFocused()
	if focused != r.focused {
		r.focused = focused
		if focused {
			r.coord.Play(host.CoordinatorBackgrounded)
		} else {
			r.coord.Pause(host.CoordinatorBackgrounded)
		}
	}
	if !focused {
		return nil
	}

	r.handleHotkeys()
	r.input.Set(0, pollInput())
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.screen.DrawToScreen(screen)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.screen.Layout(outsideWidth, outsideHeight)
}

func (r *Runner) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		r.paused = !r.paused
		if r.paused {
			r.coord.Pause(host.CoordinatorPaused)
		} else {
			r.coord.Play(host.CoordinatorPaused)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		r.coord.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		r.speedIdx = (r.speedIdx + 1) % len(host.Speeds)
		if err := r.coord.SetSpeed(host.Speeds[r.speedIdx]); err != nil {
			log.Printf("failed to set speed: %v", err)
		}
	}

	if r.slots == nil {
		return
	}
	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		r.slots.NextSlot()
		log.Printf("save slot %d", r.slots.CurrentSlot())
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		err = r.slots.Save(r.coord)
	case inpututil.IsKeyJustPressed(ebiten.KeyF7):
		err = r.slots.Load(r.coord)
	}
	if err != nil {
		log.Printf("save state: %v", err)
	}
}

var keyMap = []struct {
	keys  []ebiten.Key
	input core.Input
}{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, core.InputDpadUp},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, core.InputDpadDown},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, core.InputDpadLeft},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, core.InputDpadRight},
	{[]ebiten.Key{ebiten.KeyJ, ebiten.KeyZ}, core.InputFaceButtonRight},
	{[]ebiten.Key{ebiten.KeyK, ebiten.KeyX}, core.InputFaceButtonDown},
	{[]ebiten.Key{ebiten.KeyU}, core.InputFaceButtonUp},
	{[]ebiten.Key{ebiten.KeyI}, core.InputFaceButtonLeft},
	{[]ebiten.Key{ebiten.KeyQ}, core.InputShoulderLeft},
	{[]ebiten.Key{ebiten.KeyE}, core.InputShoulderRight},
	{[]ebiten.Key{ebiten.KeyEnter}, core.InputStartButton},
	{[]ebiten.Key{ebiten.KeyBackspace}, core.InputSelectButton},
}

var padMap = []struct {
	button ebiten.StandardGamepadButton
	input  core.Input
}{
	{ebiten.StandardGamepadButtonLeftTop, core.InputDpadUp},
	{ebiten.StandardGamepadButtonLeftBottom, core.InputDpadDown},
	{ebiten.StandardGamepadButtonLeftLeft, core.InputDpadLeft},
	{ebiten.StandardGamepadButtonLeftRight, core.InputDpadRight},
	{ebiten.StandardGamepadButtonRightRight, core.InputFaceButtonRight},
	{ebiten.StandardGamepadButtonRightBottom, core.InputFaceButtonDown},
	{ebiten.StandardGamepadButtonRightTop, core.InputFaceButtonUp},
	{ebiten.StandardGamepadButtonRightLeft, core.InputFaceButtonLeft},
	{ebiten.StandardGamepadButtonFrontTopLeft, core.InputShoulderLeft},
	{ebiten.StandardGamepadButtonFrontTopRight, core.InputShoulderRight},
	{ebiten.StandardGamepadButtonCenterRight, core.InputStartButton},
	{ebiten.StandardGamepadButtonCenterLeft, core.InputSelectButton},
}

// pollInput reads keyboard and gamepad state for player one.
func pollInput() core.Input {
	var in core.Input
	for _, m := range keyMap {
		for _, k := range m.keys {
			if ebiten.IsKeyPressed(k) {
				in |= m.input
			}
		}
	}

	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for _, m := range padMap {
			if ebiten.IsStandardGamepadButtonPressed(id, m.button) {
				in |= m.input
			}
		}

		// Left analog stick (with deadzone)
		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if axisX < -deadzone {
			in |= core.InputDpadLeft
		}
		if axisX > deadzone {
			in |= core.InputDpadRight
		}
		if axisY < -deadzone {
			in |= core.InputDpadUp
		}
		if axisY > deadzone {
			in |= core.InputDpadDown
		}
	}
	return in
}
