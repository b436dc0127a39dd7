package tonecore

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/user-none/eclipsekit/core"
)

// CheatFormatPSGWrite is a raw register write, one byte per line, applied
// after the script's writes every frame.
var CheatFormatPSGWrite = core.CheatFormat{
	ID:           "psg-write",
	DisplayName:  "PSG Register Write",
	CharacterSet: "0123456789ABCDEF",
	Format:       "xx",
}

var cheatFormats = []core.CheatFormat{CheatFormatPSGWrite}

// compileCheats validates cheats and flattens the enabled ones into a
// single write list.
func compileCheats(cheats []core.Cheat) ([]byte, error) {
	if err := core.ValidateCheats(cheatFormats, cheats); err != nil {
		return nil, err
	}
	var writes []byte
	for _, c := range cheats {
		if !c.Enabled {
			continue
		}
		code := CheatFormatPSGWrite.Normalize(c.Code)
		b, err := hex.DecodeString(strings.ReplaceAll(code, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidCheatCode, err)
		}
		writes = append(writes, b...)
	}
	return writes, nil
}
