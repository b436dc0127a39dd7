//go:build !libretro

// Command eclipse runs one game on a built-in core, either in a window or
// headless for a fixed number of frames.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"

	"github.com/user-none/eblitui/romloader"
	"github.com/user-none/eclipsekit/cli"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/cores"
	"github.com/user-none/eclipsekit/host"
	"github.com/user-none/eclipsekit/savefile"
	"github.com/user-none/eclipsekit/statsview"
	"github.com/user-none/eclipsekit/storage"
)

type options struct {
	game      string
	system    string
	coreID    string
	savePath  string
	headless  bool
	frames    int
	wavPath   string
	script    string
	speed     float64
	resume    bool
	statsview bool
}

func main() {
	var opts options
	flag.StringVar(&opts.game, "game", "", "path to game file")
	flag.StringVar(&opts.system, "system", "", "system: gb, gbc, gba, nes, or snes")
	flag.StringVar(&opts.coreID, "core", "", "core ID (default: preferred core for the system)")
	flag.StringVar(&opts.savePath, "save", "", "battery save path (default: per-game save directory)")
	flag.BoolVar(&opts.headless, "headless", false, "run without a window or audio device")
	flag.IntVar(&opts.frames, "frames", 600, "frames to run in headless mode")
	flag.StringVar(&opts.wavPath, "wav", "", "record audio to a WAV file in headless mode")
	flag.StringVar(&opts.script, "script", "", "Lua script supplying input(frame, player)")
	flag.Float64Var(&opts.speed, "speed", 0, "emulation speed 0.5 to 2 (default: from config)")
	flag.BoolVar(&opts.resume, "resume", false, "continue from the resume state if present")
	flag.BoolVar(&opts.statsview, "statsview", false, "serve runtime statistics on "+statsview.DefaultAddress)
	listCores := flag.Bool("list-cores", false, "list built-in cores and exit")
	flag.Parse()

	if *listCores {
		for _, info := range cores.Builtin() {
			fmt.Printf("%s\t%s %s\n", info.ID, info.Name, info.Version)
		}
		return
	}

	if opts.game == "" || opts.system == "" {
		fmt.Println("Usage: eclipse -game <file> -system <gb|gbc|gba|nes|snes> [-core id] [-headless [-frames n] [-wav out.wav]] [-script input.lua]")
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if err := storage.EnsureDirectories(); err != nil {
		return err
	}
	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Printf("warning: using default config: %v", err)
		cfg = storage.DefaultConfig()
	}

	sys, ok := core.ParseSystem(opts.system)
	if !ok {
		return fmt.Errorf("unknown system %q", opts.system)
	}
	info, err := selectCore(cfg, sys, opts.coreID)
	if err != nil {
		return err
	}

	gameID, displayName, err := identifyGame(opts.game, cores.Extensions(info.ID))
	if err != nil {
		return err
	}

	savesDir, err := storage.GetSavesDir()
	if err != nil {
		return err
	}
	slots := host.NewSaveStateManager(savefile.OS, savesDir)
	slots.SetGame(gameID)
	savePath := opts.savePath
	if savePath == "" {
		savePath = slots.BatteryPath()
		if err := savefile.OS.Fs().MkdirAll(slots.GameDir(), 0755); err != nil {
			return err
		}
	}

	library, err := storage.LoadLibrary()
	if err != nil {
		log.Printf("warning: starting a new library: %v", err)
		library = storage.DefaultLibrary()
	}
	entry := library.GetGame(gameID)
	if entry == nil {
		entry = &storage.GameEntry{ID: gameID}
	}
	entry.File = opts.game
	entry.DisplayName = displayName
	entry.System = sys.String()
	entry.CoreID = info.ID
	library.AddGame(entry)

	input := &host.SharedInput{}
	var source host.InputSource = input
	if opts.script != "" {
		src, err := savefile.OS.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		li, err := host.NewLuaInput(string(src))
		if err != nil {
			return err
		}
		defer li.Close()
		source = li
	}

	var sink host.Sink
	switch {
	case opts.headless && opts.wavPath != "":
		sink = host.NewWavSink(afero.NewOsFs(), opts.wavPath)
	case opts.headless:
		sink = &host.NullSink{}
	default:
		sink = host.NewOtoSink(cfg.EffectiveVolume())
	}

	coord, err := host.NewCoordinator(info, host.Options{
		System:   sys,
		BufferMs: cfg.Audio.BufferMs,
		Sink:     sink,
		Input:    source,
		OnSave:   func(path string) { log.Printf("battery saved to %s", path) },
	})
	if err != nil {
		return err
	}
	defer coord.Close()

	speed := opts.speed
	if speed == 0 {
		speed = cfg.Emulation.Speed
	}
	if err := coord.SetSpeed(host.Speed(speed)); err != nil {
		return err
	}

	if err := coord.Start(opts.game, savePath); err != nil {
		return err
	}
	if opts.resume && slots.HasResumeState() {
		if err := slots.LoadResume(coord); err != nil {
			log.Printf("warning: resume state not loaded: %v", err)
		}
	}

	if opts.statsview {
		statsview.Launch("", os.Stdout)
	}

	if opts.headless {
		runHeadless(coord, opts.frames)
	} else if err := runWindowed(coord, input, slots, cfg); err != nil {
		return err
	}

	finish(coord, slots, library, gameID)
	return nil
}

// selectCore returns the requested core or the preferred one for sys.
func selectCore(cfg *storage.Config, sys core.System, coreID string) (core.Info, error) {
	reg, err := cores.NewRegistry()
	if err != nil {
		return core.Info{}, err
	}
	if err := cfg.ApplyPreferred(reg); err != nil {
		log.Printf("warning: ignoring core preferences: %v", err)
	}
	if coreID == "" {
		return reg.Preferred(sys)
	}
	info, ok := reg.Get(coreID)
	if !ok {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrNoCore, coreID)
	}
	return info, nil
}

// identifyGame returns the game ID and a display name. Cores without an
// extension list take any file, which is hashed as is.
func identifyGame(path string, extensions []string) (string, string, error) {
	var data []byte
	name := filepath.Base(path)
	var err error
	if extensions == nil {
		data, err = savefile.OS.ReadFile(path)
	} else {
		data, name, err = romloader.Load(path, extensions)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load game: %w", err)
	}
	return storage.GameID(data), strings.TrimSuffix(name, filepath.Ext(name)), nil
}

func runHeadless(coord *host.Coordinator, frames int) {
	coord.Advance(frames)
	stats := coord.Stats()
	fmt.Printf("frames=%d rendered=%d audio overruns=%d\n",
		stats.Frames, stats.Rendered, stats.Audio.Overruns)
}

func runWindowed(coord *host.Coordinator, input *host.SharedInput, slots *host.SaveStateManager, cfg *storage.Config) error {
	runner := cli.NewRunner(coord, input, slots)
	runner.Start()
	defer runner.Close()

	format := coord.Framebuffer().Format()
	scale := cfg.Video.Scale
	ebiten.SetWindowSize(int(format.Width)*scale, int(format.Height)*scale)
	ebiten.SetWindowTitle("eclipse - " + coord.Info().Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.Window.X != nil && cfg.Window.Y != nil {
		ebiten.SetWindowPosition(*cfg.Window.X, *cfg.Window.Y)
	}
	return ebiten.RunGame(runner)
}

// finish writes the battery and resume saves and records play time.
func finish(coord *host.Coordinator, slots *host.SaveStateManager, library *storage.Library, gameID string) {
	if err := coord.Save(""); err != nil && !errors.Is(err, core.ErrUnsupported) {
		log.Printf("warning: battery save failed: %v", err)
	}
	if err := slots.SaveResume(coord); err != nil && !errors.Is(err, core.ErrUnsupported) {
		log.Printf("warning: resume state not saved: %v", err)
	}

	stats := coord.Stats()
	if rate := coord.FrameRate(); rate > 0 {
		library.UpdatePlayTime(gameID, int64(float64(stats.Frames)/rate))
	}
	if err := storage.SaveLibrary(library); err != nil {
		log.Printf("warning: library not saved: %v", err)
	}
}
