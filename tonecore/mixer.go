package tonecore

import "github.com/user-none/go-chip-sn76489"

const (
	channels = 4
	silent   = 0x0F
)

// mixer sits between register writes and the chip so individual channels
// can be muted without losing the volume the script asked for.
type mixer struct {
	psg     *sn76489.SN76489
	volumes [channels]uint8
	muted   [channels]bool
}

func newMixer(psg *sn76489.SN76489) *mixer {
	m := &mixer{psg: psg}
	for i := range m.volumes {
		m.volumes[i] = silent
	}
	return m
}

// volumeWrite decodes a latch byte of the form 1 CC 1 VVVV.
func volumeWrite(b byte) (ch int, vol uint8, ok bool) {
	if b&0x90 != 0x90 {
		return 0, 0, false
	}
	return int(b>>5) & 0x03, b & 0x0F, true
}

func volumeByte(ch int, vol uint8) byte {
	return 0x90 | byte(ch)<<5 | vol&0x0F
}

// write forwards b to the chip, substituting silence for volume writes to
// muted channels.
func (m *mixer) write(b byte) {
	if ch, vol, ok := volumeWrite(b); ok {
		m.volumes[ch] = vol
		if m.muted[ch] {
			b = volumeByte(ch, silent)
		}
	}
	m.psg.Write(b)
}

// setMuted changes a channel's mute flag and updates the chip.
func (m *mixer) setMuted(ch int, muted bool) {
	if m.muted[ch] == muted {
		return
	}
	m.muted[ch] = muted
	vol := m.volumes[ch]
	if muted {
		vol = silent
	}
	m.psg.Write(volumeByte(ch, vol))
}

// muteMask packs the mute flags, bit n for channel n.
func (m *mixer) muteMask() uint8 {
	var mask uint8
	for ch, mu := range m.muted {
		if mu {
			mask |= 1 << ch
		}
	}
	return mask
}

// level returns the audible volume of ch from 0 (silent) to 15 (loudest).
func (m *mixer) level(ch int) int {
	return silent - int(m.psg.GetVolume(ch))
}
