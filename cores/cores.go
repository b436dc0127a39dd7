// Package cores lists the cores built into eclipsekit.
package cores

import (
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/dummycore"
	"github.com/user-none/eclipsekit/tonecore"
)

// Builtin returns every built-in core, most capable first.
func Builtin() []core.Info {
	return []core.Info{tonecore.Info, dummycore.Info}
}

// NewRegistry returns a registry holding the built-in cores.
func NewRegistry() (*core.Registry, error) {
	return core.NewRegistry(Builtin()...)
}

// Extensions returns the game file extensions a core loads. A nil result
// means the core accepts any file.
func Extensions(id string) []string {
	switch id {
	case tonecore.ID:
		return tonecore.Extensions
	default:
		return nil
	}
}
