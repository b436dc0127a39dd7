package tonecore

import "github.com/user-none/eclipsekit/core"

// Region selects 60 Hz or 50 Hz timing for systems that shipped in both.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

func (r Region) String() string {
	if r == RegionPAL {
		return "PAL"
	}
	return "NTSC"
}

// Geometry is the screen size and refresh rate the core presents for a system.
type Geometry struct {
	Width  int
	Height int
	FPS    float64
}

const (
	handheldFPS = 59.7275
	ntscFPS     = 60.0988
	palFPS      = 50.0070
)

var geometries = map[core.System]Geometry{
	core.SystemGB:   {Width: 160, Height: 144, FPS: handheldFPS},
	core.SystemGBC:  {Width: 160, Height: 144, FPS: handheldFPS},
	core.SystemGBA:  {Width: 240, Height: 160, FPS: handheldFPS},
	core.SystemNES:  {Width: 256, Height: 240, FPS: ntscFPS},
	core.SystemSNES: {Width: 256, Height: 224, FPS: ntscFPS},
}

// GeometryFor returns the geometry for sys in region. Handhelds ignore the
// region. The bool is false for systems the core does not support.
func GeometryFor(sys core.System, region Region) (Geometry, bool) {
	g, ok := geometries[sys]
	if !ok {
		return Geometry{}, false
	}
	if region == RegionPAL && g.FPS == ntscFPS {
		g.FPS = palFPS
	}
	return g, true
}

// clocksPerFrameFP returns PSG clocks per frame in 16.16 fixed point.
func clocksPerFrameFP(fps float64) int {
	return int(float64(psgClockHz) * 65536 / fps)
}

// psgBufferSize is the chip's sample buffer length: two frames of headroom.
func psgBufferSize(fps float64) int {
	return (int(float64(SampleRate)/fps) + 1) * 2
}
