package core

import "errors"

var (
	// ErrSetupFailed wraps any failure returned from Info.Setup.
	ErrSetupFailed = errors.New("core setup failed")

	// ErrInvalidState is returned when an operation is not allowed in the
	// core's current lifecycle state.
	ErrInvalidState = errors.New("invalid core state")

	// ErrUnsupported is returned for optional capabilities a core lacks.
	ErrUnsupported = errors.New("operation not supported by core")

	// ErrPathUnusable is returned when a game, save, or state path cannot be used.
	ErrPathUnusable = errors.New("path unusable")

	// ErrUnknownCheatFormat is returned for cheats whose format ID the core
	// does not declare.
	ErrUnknownCheatFormat = errors.New("unknown cheat format")

	// ErrInvalidCheatCode is returned for codes that do not match their format.
	ErrInvalidCheatCode = errors.New("invalid cheat code")

	// ErrAllocation is returned by an Allocator that cannot satisfy a request.
	ErrAllocation = errors.New("buffer allocation failed")
)

// ErrUnknownSetting is returned by SettingsApplier for undeclared setting IDs.
var ErrUnknownSetting = errors.New("unknown setting")
