package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"github.com/user-none/eclipsekit/core"
)

// Sink consumes audio from a renderer.
type Sink interface {
	// Start attaches the sink to r. Pull-based sinks begin reading
	// immediately on their own goroutine.
	Start(r *AudioRenderer) error

	// Pump moves buffered audio for sinks that are driven by the frame
	// loop rather than a device clock. Pull-based sinks do nothing.
	Pump() error

	Close() error
}

// ErrSinkFormat is returned when a sink cannot play the renderer's format.
var ErrSinkFormat = errors.New("audio format not supported by sink")

// otoPlayerBufferSize keeps oto's internal buffer near 50ms at 48kHz stereo.
const otoPlayerBufferSize = 19200

// oto allows one context per process.
var (
	otoCtx      *oto.Context
	otoCtxRate  int
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoCtxRate = sampleRate
		<-ready
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoCtxRate != sampleRate {
		return nil, fmt.Errorf("%w: audio device already open at %d Hz", ErrSinkFormat, otoCtxRate)
	}
	return otoCtx, nil
}

// OtoSink plays audio on the default output device. oto pulls from the
// renderer's Read on its own goroutine.
type OtoSink struct {
	volume float64
	player *oto.Player
}

// NewOtoSink creates a device sink with an initial player volume.
func NewOtoSink(volume float64) *OtoSink {
	return &OtoSink{volume: volume}
}

func (s *OtoSink) Start(r *AudioRenderer) error {
	f := r.Format()
	if f.CommonFormat != core.AudioFormatPCMInt16 || f.ChannelCount != 2 {
		return fmt.Errorf("%w: %s with %d channels", ErrSinkFormat, f.CommonFormat, f.ChannelCount)
	}
	ctx, err := ensureOtoContext(int(f.SampleRate))
	if err != nil {
		return fmt.Errorf("oto audio not available: %w", err)
	}

	s.player = ctx.NewPlayer(r)
	s.player.SetBufferSize(otoPlayerBufferSize)
	// Set before Play to avoid a pop when muted.
	s.player.SetVolume(s.volume)
	s.player.Play()
	return nil
}

func (s *OtoSink) Pump() error { return nil }

// SetVolume changes the device volume.
func (s *OtoSink) SetVolume(v float64) {
	s.volume = v
	if s.player != nil {
		s.player.SetVolume(v)
	}
}

// Buffered reports the bytes queued inside oto.
func (s *OtoSink) Buffered() int {
	if s.player == nil {
		return 0
	}
	return s.player.BufferedSize()
}

func (s *OtoSink) Close() error {
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}

// WavSink records audio to a 16-bit WAV file. It drains the renderer each
// time the frame loop pumps it, so capture runs as fast as emulation.
type WavSink struct {
	fs   afero.Fs
	path string

	file     afero.File
	enc      *wav.Encoder
	renderer *AudioRenderer
	scratch  []byte
	buf      *audio.IntBuffer
	frames   int
}

// NewWavSink records to path on fs.
func NewWavSink(fs afero.Fs, path string) *WavSink {
	return &WavSink{fs: fs, path: path}
}

func (s *WavSink) Start(r *AudioRenderer) error {
	f := r.Format()
	if f.CommonFormat != core.AudioFormatPCMInt16 {
		return fmt.Errorf("%w: %s", ErrSinkFormat, f.CommonFormat)
	}

	file, err := s.fs.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	channels := int(f.ChannelCount)
	rate := int(f.SampleRate)
	s.file = file
	s.enc = wav.NewEncoder(file, rate, 16, channels, 1)
	s.renderer = r
	s.scratch = make([]byte, r.Stats().Capacity)
	s.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}
	return nil
}

func (s *WavSink) Pump() error {
	if s.enc == nil {
		return nil
	}
	n := s.renderer.Drain(s.scratch)
	if n == 0 {
		return nil
	}

	s.buf.Data = s.buf.Data[:0]
	for i := 0; i+1 < n; i += 2 {
		s.buf.Data = append(s.buf.Data, int(int16(binary.LittleEndian.Uint16(s.scratch[i:]))))
	}
	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	s.frames += len(s.buf.Data) / s.buf.Format.NumChannels
	return nil
}

// Frames returns the number of sample frames recorded so far.
func (s *WavSink) Frames() int {
	return s.frames
}

// Close flushes remaining audio and finalises the WAV header.
func (s *WavSink) Close() error {
	if s.enc == nil {
		return nil
	}
	pumpErr := s.Pump()
	encErr := s.enc.Close()
	fileErr := s.file.Close()
	s.enc = nil
	return errors.Join(pumpErr, encErr, fileErr)
}

// NullSink discards audio, keeping the ring from filling up when no device
// is wanted.
type NullSink struct {
	renderer *AudioRenderer
	scratch  []byte
	bytes    int
}

func (s *NullSink) Start(r *AudioRenderer) error {
	s.renderer = r
	s.scratch = make([]byte, r.Stats().Capacity)
	return nil
}

func (s *NullSink) Pump() error {
	if s.renderer != nil {
		s.bytes += s.renderer.Drain(s.scratch)
	}
	return nil
}

// Discarded returns the number of bytes consumed so far.
func (s *NullSink) Discarded() int {
	return s.bytes
}

func (s *NullSink) Close() error { return nil }

// PullSink leaves audio in the renderer for an embedder that reads it with
// AudioRenderer.Drain on its own schedule.
type PullSink struct{}

func (PullSink) Start(r *AudioRenderer) error { return nil }
func (PullSink) Pump() error                  { return nil }
func (PullSink) Close() error                 { return nil }

var (
	_ Sink = (*OtoSink)(nil)
	_ Sink = (*WavSink)(nil)
	_ Sink = (*NullSink)(nil)
	_ Sink = PullSink{}
)
