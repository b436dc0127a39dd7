package main

import (
	libretro "github.com/user-none/eblitui/libretro"

	"github.com/user-none/eclipsekit/adapter"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/tonecore"
)

func init() {
	libretro.RegisterFactory(adapter.NewFactory(tonecore.Info, core.SystemGB, tonecore.Extensions), []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},      // A
		{RetroID: libretro.JoypadB, BitID: 5},      // B
		{RetroID: libretro.JoypadX, BitID: 6},      // X
		{RetroID: libretro.JoypadY, BitID: 7},      // Y
		{RetroID: libretro.JoypadL, BitID: 8},      // L
		{RetroID: libretro.JoypadR, BitID: 9},      // R
		{RetroID: libretro.JoypadStart, BitID: 10}, // Start
		{RetroID: libretro.JoypadSelect, BitID: 11},
	})
}

func main() {}
