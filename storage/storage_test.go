package storage

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"

	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/dummycore"
	"github.com/user-none/eclipsekit/savefile"
	"github.com/user-none/eclipsekit/tonecore"
)

// useMemStore points the package at an in-memory filesystem and a fixed
// data directory for the duration of the test.
func useMemStore(t *testing.T) afero.Fs {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("data directory layout is only pinned on linux")
	}
	fs := afero.NewMemMapFs()
	prev := store
	UseStore(savefile.New(fs))
	t.Cleanup(func() { UseStore(prev) })
	t.Setenv("XDG_DATA_HOME", "/data")
	return fs
}

func TestGetBaseDir_XDG(t *testing.T) {
	useMemStore(t)
	dir, err := GetBaseDir()
	if err != nil {
		t.Fatalf("GetBaseDir failed: %v", err)
	}
	if dir != filepath.Join("/data", AppName) {
		t.Errorf("unexpected base dir %s", dir)
	}

	saveDir, _ := GetGameSaveDir("0badf00d")
	if saveDir != "/data/eclipsekit/saves/0badf00d" {
		t.Errorf("unexpected game save dir %s", saveDir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	fs := useMemStore(t)
	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{"/data/eclipsekit", "/data/eclipsekit/saves", "/data/eclipsekit/captures"} {
		if ok, _ := afero.DirExists(fs, dir); !ok {
			t.Errorf("expected %s to exist", dir)
		}
	}
}

func TestGameID(t *testing.T) {
	if got := GameID([]byte("123456789")); got != "cbf43926" {
		t.Errorf("expected cbf43926, got %s", got)
	}
	if got := GameID(nil); got != "00000000" {
		t.Errorf("expected 00000000 for empty data, got %s", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Version != 1 {
		t.Errorf("expected version 1, got %d", c.Version)
	}
	if c.Audio.Volume != 1.0 || c.Audio.BufferMs != 100 {
		t.Errorf("unexpected audio defaults: %+v", c.Audio)
	}
	if c.Video.Scale != 3 {
		t.Errorf("expected scale 3, got %d", c.Video.Scale)
	}
	if c.Emulation.Speed != 1.0 {
		t.Errorf("expected speed 1, got %f", c.Emulation.Speed)
	}
}

func TestMigrateConfig(t *testing.T) {
	c := migrateConfig(&Config{})
	if c.Version != 1 || c.Audio.Volume != 1.0 || c.Audio.BufferMs != 100 ||
		c.Video.Scale != 3 || c.Emulation.Speed != 1.0 {
		t.Errorf("expected defaults filled in, got %+v", c)
	}

	muted := migrateConfig(&Config{Audio: AudioConfig{Muted: true}})
	if muted.Audio.Volume != 0 {
		t.Errorf("expected muted volume to stay 0, got %f", muted.Audio.Volume)
	}
	if muted.EffectiveVolume() != 0 {
		t.Error("expected muted effective volume 0")
	}
}

func TestConfig_LoadMissingReturnsDefaults(t *testing.T) {
	useMemStore(t)
	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Video.Scale != 3 {
		t.Errorf("expected default config, got %+v", c)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	useMemStore(t)
	c := DefaultConfig()
	c.Audio.Volume = 0.25
	c.Emulation.Speed = 1.5
	c.SetPreferred(core.SystemNES, tonecore.ID)
	if err := SaveConfig(c); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Audio.Volume != 0.25 || got.Emulation.Speed != 1.5 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Cores.Preferred["NES"] != tonecore.ID {
		t.Errorf("expected NES preference, got %v", got.Cores.Preferred)
	}

	if err := DeleteConfig(); err != nil {
		t.Fatalf("DeleteConfig failed: %v", err)
	}
	if err := CreateConfigIfMissing(); err != nil {
		t.Fatalf("CreateConfigIfMissing failed: %v", err)
	}
	got, _ = LoadConfig()
	if got.Audio.Volume != 1.0 {
		t.Errorf("expected recreated default config, got %+v", got.Audio)
	}
}

func TestConfig_LoadCorrupt(t *testing.T) {
	fs := useMemStore(t)
	path, _ := GetConfigPath()
	afero.WriteFile(fs, path, []byte("{not json"), 0644)
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for corrupt config")
	}
}

func TestConfig_ApplyPreferred(t *testing.T) {
	reg, err := core.NewRegistry(dummycore.Info, tonecore.Info)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	c := DefaultConfig()
	c.SetPreferred(core.SystemGB, tonecore.ID)
	c.Cores.Preferred["Atari"] = dummycore.ID
	c.Cores.Preferred["SNES"] = "dev.magnetar.missing"

	err = c.ApplyPreferred(reg)
	if err == nil {
		t.Fatal("expected errors for unknown system and core")
	}
	if !errors.Is(err, core.ErrNoCore) {
		t.Errorf("expected ErrNoCore in %v", err)
	}

	info, err := reg.Preferred(core.SystemGB)
	if err != nil || info.ID != tonecore.ID {
		t.Errorf("expected GB preference applied, got %s (%v)", info.ID, err)
	}

	c.SetPreferred(core.SystemGB, "")
	if _, ok := c.Cores.Preferred["GB"]; ok {
		t.Error("expected empty id to clear the preference")
	}
}

func TestLibrary_AddGetRemove(t *testing.T) {
	lib := DefaultLibrary()
	lib.AddGame(&GameEntry{ID: "a", DisplayName: "Alpha", Added: 10})
	lib.AddGame(&GameEntry{ID: "b", DisplayName: "Beta"})

	if lib.GameCount() != 2 {
		t.Fatalf("expected 2 games, got %d", lib.GameCount())
	}
	if lib.GetGame("b").Added == 0 {
		t.Error("expected Added stamped on insert")
	}

	// Re-adding keeps the original Added time.
	lib.AddGame(&GameEntry{ID: "a", DisplayName: "Alpha (Rev 1)"})
	if g := lib.GetGame("a"); g.Added != 10 || g.DisplayName != "Alpha (Rev 1)" {
		t.Errorf("unexpected entry after update: %+v", g)
	}

	lib.RemoveGame("a")
	if lib.GetGame("a") != nil || lib.GameCount() != 1 {
		t.Error("expected game removed")
	}
	if (&Library{}).GetGame("x") != nil {
		t.Error("expected nil from empty library")
	}
}

func TestLibrary_GetGamesSorted(t *testing.T) {
	lib := DefaultLibrary()
	lib.Games["1"] = &GameEntry{ID: "1", DisplayName: "zelda", System: "GB", LastPlayed: 300, PlayTimeSeconds: 10}
	lib.Games["2"] = &GameEntry{ID: "2", DisplayName: "Metroid", System: "NES", LastPlayed: 100, PlayTimeSeconds: 50, Favorite: true}
	lib.Games["3"] = &GameEntry{ID: "3", DisplayName: "Metroid", System: "GBA", LastPlayed: 200, PlayTimeSeconds: 50}

	ids := func(games []*GameEntry) []string {
		out := make([]string, len(games))
		for i, g := range games {
			out[i] = g.ID
		}
		return out
	}

	tests := []struct {
		sortBy    string
		favorites bool
		want      []string
	}{
		{"title", false, []string{"3", "2", "1"}},
		{"lastPlayed", false, []string{"1", "3", "2"}},
		{"playTime", false, []string{"3", "2", "1"}},
		{"unknown", false, []string{"3", "2", "1"}},
		{"title", true, []string{"2"}},
	}
	for _, tt := range tests {
		got := ids(lib.GetGamesSorted(tt.sortBy, tt.favorites))
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.sortBy, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s favorites=%v: expected %v, got %v", tt.sortBy, tt.favorites, tt.want, got)
				break
			}
		}
	}
}

func TestLibrary_UpdatePlayTime(t *testing.T) {
	lib := DefaultLibrary()
	lib.AddGame(&GameEntry{ID: "a"})
	lib.UpdatePlayTime("a", 30)
	lib.UpdatePlayTime("a", 12)
	lib.UpdatePlayTime("missing", 5)

	g := lib.GetGame("a")
	if g.PlayTimeSeconds != 42 {
		t.Errorf("expected 42 seconds, got %d", g.PlayTimeSeconds)
	}
	if g.LastPlayed == 0 {
		t.Error("expected LastPlayed to be set")
	}
}

func TestLibrary_SaveLoad(t *testing.T) {
	useMemStore(t)
	lib, err := LoadLibrary()
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if lib.GameCount() != 0 {
		t.Fatal("expected empty library")
	}

	lib.AddGame(&GameEntry{ID: "cbf43926", File: "/roms/tones.psgs", DisplayName: "Tones", System: "GB", CoreID: tonecore.ID})
	if err := SaveLibrary(lib); err != nil {
		t.Fatalf("SaveLibrary failed: %v", err)
	}

	got, err := LoadLibrary()
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	g := got.GetGame("cbf43926")
	if g == nil || g.CoreID != tonecore.ID || g.File != "/roms/tones.psgs" {
		t.Errorf("round trip mismatch: %+v", g)
	}
}
