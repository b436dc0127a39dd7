package host

import (
	"errors"
	"fmt"
	"log"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/eclipsekit/core"
)

// ErrNoInputFunction is returned when a script does not define input.
var ErrNoInputFunction = errors.New("script does not define an input function")

// luaButtons are the controls exposed to scripts through the Button table.
// The remaining inputs are analog or device specific.
var luaButtons = []core.Input{
	core.InputFaceButtonUp,
	core.InputFaceButtonDown,
	core.InputFaceButtonLeft,
	core.InputFaceButtonRight,
	core.InputStartButton,
	core.InputSelectButton,
	core.InputShoulderLeft,
	core.InputShoulderRight,
	core.InputTriggerLeft,
	core.InputTriggerRight,
	core.InputDpadUp,
	core.InputDpadDown,
	core.InputDpadLeft,
	core.InputDpadRight,
}

// LuaInput drives players from a Lua script. The script defines
//
//	function input(frame, player) ... end
//
// returning a bitmask built from the global Button table, for example
// Button.A + Button.Right. It is called under the coordinator's lock and
// is not safe for concurrent use otherwise.
type LuaInput struct {
	L       *lua.LState
	fn      lua.LValue
	lastErr error
}

// NewLuaInput compiles and runs source, then looks up its input function.
func NewLuaInput(source string) (*LuaInput, error) {
	L := lua.NewState()

	buttons := L.NewTable()
	for _, b := range luaButtons {
		L.SetField(buttons, core.InputName(b), lua.LNumber(b))
	}
	L.SetGlobal("Button", buttons)

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to run input script: %w", err)
	}

	fn := L.GetGlobal("input")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoInputFunction
	}
	return &LuaInput{L: L, fn: fn}, nil
}

// Input calls the script for one player on one frame. Script errors and
// non-numeric results yield no input; the first error is logged.
func (li *LuaInput) Input(frame uint64, player uint8) core.Input {
	err := li.L.CallByParam(lua.P{Fn: li.fn, NRet: 1, Protect: true},
		lua.LNumber(frame), lua.LNumber(player))
	if err != nil {
		if li.lastErr == nil {
			log.Printf("warning: input script: %v", err)
		}
		li.lastErr = err
		return core.InputNone
	}

	ret := li.L.Get(-1)
	li.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok || n < 0 {
		return core.InputNone
	}
	return core.Input(uint32(n)) & core.InputAll
}

// Err returns the most recent script error.
func (li *LuaInput) Err() error {
	return li.lastErr
}

// Close releases the Lua state.
func (li *LuaInput) Close() {
	li.L.Close()
}

var _ InputSource = (*LuaInput)(nil)
