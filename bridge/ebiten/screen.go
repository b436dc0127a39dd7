//go:build !libretro && !ios

// Package ebiten draws frames published by the host onto an Ebiten screen.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/eclipsekit/host"
)

// Screen presents a host.SharedFramebuffer.
type Screen struct {
	fb *host.SharedFramebuffer

	offscreen *ebiten.Image           // Native resolution copy of the latest frame
	rgba      []byte                  // Conversion scratch
	lastFrame uint64                  // Sequence number held in offscreen
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewScreen creates a presenter for fb.
func NewScreen(fb *host.SharedFramebuffer) *Screen {
	format := fb.Format()
	return &Screen{
		fb:        fb,
		offscreen: ebiten.NewImage(int(format.Width), int(format.Height)),
		rgba:      make([]byte, format.BufferSize()),
	}
}

// Size returns the native frame size.
func (s *Screen) Size() (int, int) {
	format := s.fb.Format()
	return int(format.Width), int(format.Height)
}

// Image returns the latest frame at native resolution.
func (s *Screen) Image() *ebiten.Image {
	if seq := s.fb.ReadRGBA(s.rgba); seq != s.lastFrame {
		s.offscreen.WritePixels(s.rgba)
		s.lastFrame = seq
	}
	return s.offscreen
}

// DrawToScreen renders the latest frame scaled to fit screen, preserving
// aspect ratio and centering the image.
func (s *Screen) DrawToScreen(screen *ebiten.Image) {
	src := s.Image()
	nativeW, nativeH := s.Size()

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scaleX := float64(screenW) / float64(nativeW)
	scaleY := float64(screenH) / float64(nativeH)
	scale := min(scaleX, scaleY)

	scaledW := float64(nativeW) * scale
	scaledH := float64(nativeH) * scale
	offsetX := (float64(screenW) - scaledW) / 2
	offsetY := (float64(screenH) - scaledH) / 2

	s.drawOpts = ebiten.DrawImageOptions{}
	s.drawOpts.GeoM.Scale(scale, scale)
	s.drawOpts.GeoM.Translate(offsetX, offsetY)
	s.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(src, &s.drawOpts)
}

// Layout returns the window size so scaling is controlled in DrawToScreen.
func (s *Screen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
