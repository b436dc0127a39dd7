package tonecore

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/user-none/go-chip-sn76489"
)

const (
	stateVersion    = 1
	stateMagic      = "ToneCoreStat"
	stateHeaderSize = 22 // magic(12) + version(2) + gameCRC(4) + dataCRC(4)

	// cursor(4) + frame counter(8) + mute mask(1) + hold(1) + volumes(4)
	stateBodySize = 18
)

const (
	batteryMagic = "PSGB"
	batterySize  = 8 // magic(4) + cursor(4)
)

var (
	errStateShort     = errors.New("save state too short")
	errStateMagic     = errors.New("invalid save state magic")
	errStateVersion   = errors.New("unsupported save state version")
	errStateGame      = errors.New("save state is for a different game")
	errStateCorrupted = errors.New("save state data is corrupted")
	errBatteryInvalid = errors.New("invalid battery save")
)

// stateSize returns the size of a serialized state.
func stateSize() int {
	return stateHeaderSize + stateBodySize + sn76489.SerializeSize
}

// serialize captures everything needed to resume playback.
func (c *Core) serialize() []byte {
	data := make([]byte, stateSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], c.gameCRC)

	off := stateHeaderSize
	binary.LittleEndian.PutUint32(data[off:], uint32(c.cursor))
	binary.LittleEndian.PutUint64(data[off+4:], c.frame)
	data[off+12] = c.mix.muteMask()
	if c.hold {
		data[off+13] = 1
	}
	copy(data[off+14:off+18], c.mix.volumes[:])
	off += stateBodySize

	c.psg.Serialize(data[off:])

	binary.LittleEndian.PutUint32(data[18:22], crc32.ChecksumIEEE(data[stateHeaderSize:]))
	return data
}

// verifyState checks a state without applying it.
func (c *Core) verifyState(data []byte) error {
	if len(data) < stateSize() {
		return errStateShort
	}
	if string(data[0:12]) != stateMagic {
		return errStateMagic
	}
	if binary.LittleEndian.Uint16(data[12:14]) > stateVersion {
		return errStateVersion
	}
	if binary.LittleEndian.Uint32(data[14:18]) != c.gameCRC {
		return errStateGame
	}
	if binary.LittleEndian.Uint32(data[18:22]) != crc32.ChecksumIEEE(data[stateHeaderSize:]) {
		return errStateCorrupted
	}
	if int(binary.LittleEndian.Uint32(data[stateHeaderSize:])) >= len(c.script.frames) {
		return errStateCorrupted
	}
	return nil
}

// deserialize applies a state previously checked by verifyState.
func (c *Core) deserialize(data []byte) {
	off := stateHeaderSize
	c.cursor = int(binary.LittleEndian.Uint32(data[off:]))
	c.frame = binary.LittleEndian.Uint64(data[off+4:])
	mask := data[off+12]
	c.hold = data[off+13] != 0
	copy(c.mix.volumes[:], data[off+14:off+18])
	for ch := range c.mix.muted {
		c.mix.muted[ch] = mask&(1<<ch) != 0
	}
	off += stateBodySize

	c.psg.Deserialize(data[off:])
}

func (c *Core) encodeBattery() []byte {
	data := make([]byte, batterySize)
	copy(data, batteryMagic)
	binary.LittleEndian.PutUint32(data[4:], uint32(c.cursor))
	return data
}

// decodeBattery returns the script cursor stored in a battery save.
func (c *Core) decodeBattery(data []byte) (int, error) {
	if len(data) != batterySize || string(data[:4]) != batteryMagic {
		return 0, errBatteryInvalid
	}
	cursor := int(binary.LittleEndian.Uint32(data[4:]))
	if cursor >= len(c.script.frames) {
		return 0, errBatteryInvalid
	}
	return cursor, nil
}
