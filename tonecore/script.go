package tonecore

import (
	"bytes"
	"errors"
	"fmt"
)

// Script file layout:
//
//	"PSGS"  magic
//	0x01    version
//	frames: [n][n bytes of PSG register writes] repeated
//
// Playback loops back to the first frame after the last.
const (
	scriptMagic   = "PSGS"
	scriptVersion = 1
)

// ErrInvalidScript is returned when a game file is not a valid PSG script.
var ErrInvalidScript = errors.New("invalid PSG script")

// script is a parsed register-write sequence, one slice per frame.
type script struct {
	frames [][]byte
}

// parseScript validates and splits a script file.
func parseScript(data []byte) (*script, error) {
	if len(data) < len(scriptMagic)+1 || !bytes.Equal(data[:len(scriptMagic)], []byte(scriptMagic)) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidScript)
	}
	if v := data[len(scriptMagic)]; v != scriptVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidScript, v)
	}

	s := &script{}
	rest := data[len(scriptMagic)+1:]
	for len(rest) > 0 {
		n := int(rest[0])
		if len(rest) < 1+n {
			return nil, fmt.Errorf("%w: frame %d truncated", ErrInvalidScript, len(s.frames))
		}
		s.frames = append(s.frames, rest[1:1+n])
		rest = rest[1+n:]
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidScript)
	}
	return s, nil
}

// EncodeScript builds a script file from per-frame register writes. Frames
// longer than 255 writes are rejected.
func EncodeScript(frames [][]byte) ([]byte, error) {
	out := append([]byte(scriptMagic), scriptVersion)
	for i, f := range frames {
		if len(f) > 255 {
			return nil, fmt.Errorf("%w: frame %d has %d writes", ErrInvalidScript, i, len(f))
		}
		out = append(out, byte(len(f)))
		out = append(out, f...)
	}
	return out, nil
}
