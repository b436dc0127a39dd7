package core

import (
	"fmt"
	"slices"
)

// SetupFunc creates a core instance for system. On failure it returns a nil
// Core and an error, having released anything it allocated.
type SetupFunc func(system System, callbacks Callbacks) (Core, error)

// Info is the static description of a core and its factory.
type Info struct {
	// ID is a reverse-DNS identifier, unique across cores.
	ID            string
	Name          string
	Developer     string
	Version       string
	SourceCodeURL string

	Systems      []System
	Settings     Settings
	CheatFormats []CheatFormat

	Setup SetupFunc
}

// Supports reports whether the core can emulate sys.
func (i Info) Supports(sys System) bool {
	return slices.Contains(i.Systems, sys)
}

// New sets up a core for sys, checking that the system is supported and
// wrapping any failure in ErrSetupFailed.
func (i Info) New(sys System, callbacks Callbacks) (Core, error) {
	if i.Setup == nil {
		return nil, fmt.Errorf("%w: %s has no setup function", ErrSetupFailed, i.ID)
	}
	if !i.Supports(sys) {
		return nil, fmt.Errorf("%w: %s does not support %s", ErrSetupFailed, i.ID, sys)
	}
	c, err := i.Setup(sys, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSetupFailed, i.ID, err)
	}
	return c, nil
}
