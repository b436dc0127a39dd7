// Package host runs a core on behalf of a frontend: it paces frames, carries
// audio from the core to an output sink through a lock-free ring, and hands
// video and input across goroutines.
package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/ringbuffer"
)

// DefaultBufferMs is the audio latency used when the configuration leaves it unset.
const DefaultBufferMs = 100

// ErrInvalidAudioFormat is returned for formats the renderer cannot carry.
var ErrInvalidAudioFormat = errors.New("invalid audio format")

// AudioStats is a snapshot of renderer counters.
type AudioStats struct {
	Buffered  int
	Capacity  int
	Overruns  uint64
	Underruns uint64
}

// AudioRenderer connects a core's WriteAudio callback (producer) to an
// output device pulling through Read (consumer). Neither side blocks:
// writes that do not fit are dropped and reads that find too little data
// are padded with silence.
type AudioRenderer struct {
	ring      *ringbuffer.RingBuffer
	format    core.AudioFormat
	frameSize int

	paused    atomic.Bool
	flush     atomic.Bool
	volume    atomic.Uint32
	overruns  atomic.Uint64
	underruns atomic.Uint64
}

// NewAudioRenderer creates a renderer holding bufferMs of audio in format.
// A bufferMs of zero or less selects DefaultBufferMs.
func NewAudioRenderer(format core.AudioFormat, bufferMs int) (*AudioRenderer, error) {
	frameSize := format.FrameSize()
	if frameSize <= 0 || format.SampleRate <= 0 || !format.IsInterleaved {
		return nil, fmt.Errorf("%w: %s %v Hz %d channels", ErrInvalidAudioFormat,
			format.CommonFormat, format.SampleRate, format.ChannelCount)
	}
	if bufferMs <= 0 {
		bufferMs = DefaultBufferMs
	}

	frames := int(math.Ceil(format.SampleRate * float64(bufferMs) / 1000))
	// One extra byte for the slot the ring keeps free.
	ring, err := ringbuffer.New(frames*frameSize + 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio ring: %w", err)
	}

	a := &AudioRenderer{
		ring:      ring,
		format:    format,
		frameSize: frameSize,
	}
	a.volume.Store(math.Float32bits(1))
	return a, nil
}

// Format returns the PCM layout carried by the renderer.
func (a *AudioRenderer) Format() core.AudioFormat {
	return a.format
}

// WriteAudio is installed as the core's audio callback. It accepts the
// whole buffer or nothing; rejected buffers are counted as overruns.
func (a *AudioRenderer) WriteAudio(buf []byte, sampleCount int) int {
	if len(buf) == 0 {
		return 0
	}
	n := a.ring.Write(buf)
	if n == 0 {
		a.overruns.Add(1)
	}
	return n
}

// Read fills p with PCM for the output device. It copies the largest
// whole-frame amount available and pads the remainder with silence, so it
// always returns len(p). While paused the ring is left untouched.
func (a *AudioRenderer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if a.paused.Load() {
		clear(p)
		return len(p), nil
	}

	want := len(p) - len(p)%a.frameSize
	got := a.readFrames(p[:want])
	if got < want {
		a.underruns.Add(1)
	}
	clear(p[got:])
	a.applyVolume(p[:got])
	return len(p), nil
}

// Drain copies whole frames currently buffered into p without padding and
// returns the byte count. Used by sinks that pull at their own pace.
func (a *AudioRenderer) Drain(p []byte) int {
	want := len(p) - len(p)%a.frameSize
	got := a.readFrames(p[:want])
	a.applyVolume(p[:got])
	return got
}

func (a *AudioRenderer) readFrames(p []byte) int {
	if a.flush.Swap(false) {
		a.discard()
	}
	avail := a.ring.AvailableRead()
	n := min(len(p), avail-avail%a.frameSize)
	if n <= 0 {
		return 0
	}
	return a.ring.Read(p[:n])
}

// applyVolume scales signed 16-bit samples in place. Other formats pass
// through unchanged.
func (a *AudioRenderer) applyVolume(p []byte) {
	vol := math.Float32frombits(a.volume.Load())
	if vol == 1 || a.format.CommonFormat != core.AudioFormatPCMInt16 {
		return
	}
	for i := 0; i+1 < len(p); i += 2 {
		s := float32(int16(binary.LittleEndian.Uint16(p[i:]))) * vol
		binary.LittleEndian.PutUint16(p[i:], uint16(int16(s)))
	}
}

// SetVolume sets the output gain, clamped to [0, 1].
func (a *AudioRenderer) SetVolume(v float64) {
	v = max(0, min(1, v))
	a.volume.Store(math.Float32bits(float32(v)))
}

// Volume returns the output gain.
func (a *AudioRenderer) Volume() float64 {
	return float64(math.Float32frombits(a.volume.Load()))
}

// Pause makes Read produce silence without consuming buffered audio.
func (a *AudioRenderer) Pause() { a.paused.Store(true) }

// Resume undoes Pause.
func (a *AudioRenderer) Resume() { a.paused.Store(false) }

// Paused reports whether output is paused.
func (a *AudioRenderer) Paused() bool { return a.paused.Load() }

// Clear discards buffered audio. The consumer performs the discard on its
// next Read or Drain, so Clear is safe while the output device is pulling.
func (a *AudioRenderer) Clear() {
	a.flush.Store(true)
}

// discard drops everything currently readable. Consumer side only.
func (a *AudioRenderer) discard() {
	var scratch [4096]byte
	for remaining := a.ring.AvailableRead(); remaining > 0; {
		n := min(remaining, len(scratch))
		if a.ring.Read(scratch[:n]) == 0 {
			return
		}
		remaining -= n
	}
}

// Reset empties the ring immediately and zeroes its storage. Neither
// WriteAudio nor Read may run concurrently.
func (a *AudioRenderer) Reset() {
	a.flush.Store(false)
	a.ring.Clear()
}

// Stats returns the current counters.
func (a *AudioRenderer) Stats() AudioStats {
	return AudioStats{
		Buffered:  a.ring.AvailableRead(),
		Capacity:  a.ring.Capacity() - 1,
		Overruns:  a.overruns.Load(),
		Underruns: a.underruns.Load(),
	}
}

// Close releases the ring. The renderer must not be used afterwards.
func (a *AudioRenderer) Close() {
	a.ring.Close()
}
