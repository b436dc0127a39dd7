//go:build !libretro && !ios

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"

	"github.com/user-none/eclipsekit/adapter"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/cores"
	"github.com/user-none/eclipsekit/tonecore"
)

func main() {
	romPath := flag.String("rom", "", "path to game file (opens UI if not provided)")
	systemFlag := flag.String("system", "gb", "system: gb, gbc, gba, nes, or snes")
	coreID := flag.String("core", tonecore.ID, "core ID")
	loop := flag.Bool("loop", true, "restart playback after the last frame")
	flag.Parse()

	sys, ok := core.ParseSystem(*systemFlag)
	if !ok {
		log.Fatalf("Invalid system: %s", *systemFlag)
	}
	reg, err := cores.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}
	info, ok := reg.Get(*coreID)
	if !ok {
		log.Fatalf("Unknown core: %s", *coreID)
	}

	extensions := cores.Extensions(info.ID)
	if extensions == nil {
		extensions = []string{".bin"}
	}
	factory := adapter.NewFactory(info, sys, extensions)

	if *romPath != "" {
		options := map[string]string{}
		if info.ID == tonecore.ID && !*loop {
			options[tonecore.SettingLoop] = "false"
		}
		if err := standalone.RunDirect(factory, *romPath, "auto", options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
