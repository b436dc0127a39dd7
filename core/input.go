package core

import "strings"

// Input is a bitmask of pressed controls for one player. Bit positions are
// part of the core ABI and must not be renumbered.
type Input uint32

const InputNone Input = 0

const (
	InputFaceButtonUp Input = 1 << iota
	InputFaceButtonDown
	InputFaceButtonLeft
	InputFaceButtonRight
	InputStartButton
	InputSelectButton
	InputShoulderLeft
	InputShoulderRight
	InputTriggerLeft
	InputTriggerRight
	InputDpadUp
	InputDpadDown
	InputDpadLeft
	InputDpadRight
	InputLeftJoystickUp
	InputLeftJoystickDown
	InputLeftJoystickLeft
	InputLeftJoystickRight
	InputRightJoystickUp
	InputRightJoystickDown
	InputRightJoystickLeft
	InputRightJoystickRight
	InputTouchPosX
	InputTouchNegX
	InputTouchPosY
	InputTouchNegY
	InputLid
	InputMic
)

// inputCount is the number of defined input bits.
const inputCount = 28

// InputAll has every defined input bit set.
const InputAll Input = 1<<inputCount - 1

var inputNames = [inputCount]string{
	"X", "B", "Y", "A",
	"Start", "Select",
	"L", "R", "ZL", "ZR",
	"Up", "Down", "Left", "Right",
	"Left Joystick Y+", "Left Joystick Y-", "Left Joystick X-", "Left Joystick X+",
	"Right Joystick Y+", "Right Joystick Y-", "Right Joystick X-", "Right Joystick X+",
	"Touch X+", "Touch X-", "Touch Y+", "Touch Y-",
	"Lid", "Mic",
}

// Has reports whether every bit of mask is set.
func (i Input) Has(mask Input) bool {
	return i&mask == mask
}

// String lists the pressed controls separated by "+", or "None".
func (i Input) String() string {
	if i&InputAll == 0 {
		return "None"
	}
	var names []string
	for bit := 0; bit < inputCount; bit++ {
		if i&(1<<bit) != 0 {
			names = append(names, inputNames[bit])
		}
	}
	return strings.Join(names, "+")
}

// InputName returns the display name of a single input bit.
func InputName(bit Input) string {
	for n := 0; n < inputCount; n++ {
		if bit == 1<<n {
			return inputNames[n]
		}
	}
	return ""
}
