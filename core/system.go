package core

import "strings"

// System identifies the console a core emulates.
type System uint32

const (
	SystemUnknown System = iota
	SystemGB
	SystemGBC
	SystemGBA
	SystemNES
	SystemSNES
)

// String returns the short display name of the system.
func (s System) String() string {
	switch s {
	case SystemGB:
		return "GB"
	case SystemGBC:
		return "GBC"
	case SystemGBA:
		return "GBA"
	case SystemNES:
		return "NES"
	case SystemSNES:
		return "SNES"
	default:
		return "Unknown"
	}
}

// ParseSystem maps a case-insensitive short name to a System.
// Unrecognised names return SystemUnknown and false.
func ParseSystem(name string) (System, bool) {
	switch strings.ToLower(name) {
	case "gb":
		return SystemGB, true
	case "gbc":
		return SystemGBC, true
	case "gba":
		return SystemGBA, true
	case "nes":
		return SystemNES, true
	case "snes":
		return SystemSNES, true
	default:
		return SystemUnknown, false
	}
}
