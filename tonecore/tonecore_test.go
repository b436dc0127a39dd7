package tonecore

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/user-none/eclipsekit/core"
	"github.com/user-none/eclipsekit/savefile"
)

// testFrames starts channel 0 at full volume, then idles for three frames.
var testFrames = [][]byte{
	{0x8F, 0x10, 0x90},
	{},
	{},
	{},
}

func writeScript(t *testing.T, frames [][]byte) string {
	t.Helper()
	data, err := EncodeScript(frames)
	if err != nil {
		t.Fatalf("EncodeScript failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tune.psgs")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

type recorder struct {
	samples int
	frames  [][]byte
	saved   []string
}

func (r *recorder) callbacks() core.Callbacks {
	return core.Callbacks{
		WriteAudio: func(buf []byte, sampleCount int) int {
			r.samples += sampleCount
			r.frames = append(r.frames, bytes.Clone(buf))
			return len(buf)
		},
		DidSave: func(path string) { r.saved = append(r.saved, path) },
	}
}

func startCore(t *testing.T, rec *recorder, savePath string, opts ...Option) *Core {
	t.Helper()
	c, err := New(core.SystemGB, rec.callbacks(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Deallocate)
	if err := c.Start(writeScript(t, testFrames), savePath); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return c
}

func TestGeometry(t *testing.T) {
	tests := []struct {
		sys    core.System
		region Region
		w, h   uint32
		fps    float64
	}{
		{core.SystemGB, RegionNTSC, 160, 144, handheldFPS},
		{core.SystemGBA, RegionPAL, 240, 160, handheldFPS},
		{core.SystemNES, RegionNTSC, 256, 240, ntscFPS},
		{core.SystemSNES, RegionPAL, 256, 224, palFPS},
	}
	for _, tt := range tests {
		t.Run(tt.sys.String(), func(t *testing.T) {
			c, err := New(tt.sys, core.Callbacks{}, WithRegion(tt.region))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer c.Deallocate()
			v := c.VideoFormat()
			if v.Width != tt.w || v.Height != tt.h {
				t.Errorf("expected %dx%d, got %dx%d", tt.w, tt.h, v.Width, v.Height)
			}
			if c.DesiredFrameRate() != tt.fps {
				t.Errorf("expected %v fps, got %v", tt.fps, c.DesiredFrameRate())
			}
			if len(c.VideoBuffer(nil)) != v.BufferSize() {
				t.Errorf("expected framebuffer of %d bytes, got %d", v.BufferSize(), len(c.VideoBuffer(nil)))
			}
		})
	}

	if _, err := New(core.SystemUnknown, core.Callbacks{}); err == nil {
		t.Error("expected unknown system to be rejected")
	}
}

func TestStartErrors(t *testing.T) {
	c, _ := New(core.SystemGB, core.Callbacks{})
	defer c.Deallocate()

	if err := c.Start(filepath.Join(t.TempDir(), "missing.psgs"), ""); !errors.Is(err, core.ErrPathUnusable) {
		t.Errorf("expected ErrPathUnusable for missing game, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.psgs")
	os.WriteFile(bad, []byte("NOPE\x01"), 0644)
	if err := c.Start(bad, ""); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}
	if c.State() != core.StateReady {
		t.Errorf("expected failed start to stay ready, got %s", c.State())
	}

	if err := c.Start(writeScript(t, testFrames), ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := c.Start(writeScript(t, testFrames), ""); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on second start, got %v", err)
	}
}

func TestExecuteFrame_Audio(t *testing.T) {
	rec := &recorder{}
	c := startCore(t, rec, "")

	c.ExecuteFrame(false)
	if len(rec.frames) != 1 {
		t.Fatalf("expected one audio delivery, got %d", len(rec.frames))
	}
	expected := SampleRate / 60 * 2
	if rec.samples < expected-40 || rec.samples > expected+40 {
		t.Errorf("expected about %d samples, got %d", expected, rec.samples)
	}
	if len(rec.frames[0]) != rec.samples*2 {
		t.Errorf("expected %d bytes, got %d", rec.samples*2, len(rec.frames[0]))
	}
	if bytes.Equal(rec.frames[0], make([]byte, len(rec.frames[0]))) {
		t.Error("expected audible tone after full-volume write")
	}
	if c.Cursor() != 1 || c.Frame() != 1 {
		t.Errorf("expected cursor 1 frame 1, got %d and %d", c.Cursor(), c.Frame())
	}
}

func TestExecuteFrame_Loops(t *testing.T) {
	c := startCore(t, &recorder{}, "")
	for range len(testFrames) {
		c.ExecuteFrame(false)
	}
	if c.Cursor() != 0 {
		t.Errorf("expected cursor to wrap to 0, got %d", c.Cursor())
	}

	if err := c.ApplySetting(SettingLoop, "false"); err != nil {
		t.Fatalf("ApplySetting failed: %v", err)
	}
	for range len(testFrames) + 2 {
		c.ExecuteFrame(false)
	}
	if c.Cursor() != len(testFrames)-1 {
		t.Errorf("expected cursor parked at %d, got %d", len(testFrames)-1, c.Cursor())
	}

	if err := c.ApplySetting("nope", "1"); !errors.Is(err, core.ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestExecuteFrame_RenderDecoupling(t *testing.T) {
	c := startCore(t, &recorder{}, "")
	before := bytes.Clone(c.VideoBuffer(nil))
	c.ExecuteFrame(false)
	if !bytes.Equal(before, c.VideoBuffer(nil)) {
		t.Error("expected framebuffer untouched when not rendering")
	}
	c.ExecuteFrame(true)
	if bytes.Equal(before, c.VideoBuffer(nil)) {
		t.Error("expected level bar after rendering")
	}
}

func TestVideoPointerRejected(t *testing.T) {
	c := startCore(t, &recorder{}, "")
	host := make([]byte, c.VideoFormat().BufferSize())
	if got := c.VideoBuffer(host); &got[0] == &host[0] {
		t.Error("expected host buffer to be ignored")
	}
}

func TestInputs_MuteAndHold(t *testing.T) {
	c := startCore(t, &recorder{}, "")
	c.PlayerConnected(0)
	c.ExecuteFrame(false)
	if c.mix.level(0) != 15 {
		t.Fatalf("expected channel 0 at full level, got %d", c.mix.level(0))
	}

	c.PlayerSetInputs(0, core.InputFaceButtonUp|core.InputStartButton)
	if c.mix.level(0) != 0 {
		t.Errorf("expected muted channel 0, got level %d", c.mix.level(0))
	}
	cursor := c.Cursor()
	c.ExecuteFrame(false)
	if c.Cursor() != cursor {
		t.Errorf("expected Start to hold cursor at %d, got %d", cursor, c.Cursor())
	}

	c.PlayerSetInputs(0, core.InputNone)
	if c.mix.level(0) != 15 {
		t.Errorf("expected channel 0 restored, got level %d", c.mix.level(0))
	}
}

func TestSetCheats(t *testing.T) {
	c := startCore(t, &recorder{}, "")

	// Silence channel 0 every frame.
	if err := c.SetCheats([]core.Cheat{{FormatID: "psg-write", Code: "9f", Enabled: true}}); err != nil {
		t.Fatalf("SetCheats failed: %v", err)
	}
	c.ExecuteFrame(false)
	if c.mix.level(0) != 0 {
		t.Errorf("expected cheat to silence channel 0, got level %d", c.mix.level(0))
	}

	err := c.SetCheats([]core.Cheat{{FormatID: "psg-write", Code: "zz", Enabled: true}})
	if !errors.Is(err, core.ErrInvalidCheatCode) {
		t.Errorf("expected ErrInvalidCheatCode, got %v", err)
	}
	err = c.SetCheats([]core.Cheat{{FormatID: "gg", Code: "00", Enabled: true}})
	if !errors.Is(err, core.ErrUnknownCheatFormat) {
		t.Errorf("expected ErrUnknownCheatFormat, got %v", err)
	}
	if !bytes.Equal(c.cheats, []byte{0x9F}) {
		t.Errorf("expected previous cheats kept, got %x", c.cheats)
	}

	if err := c.SetCheats(nil); err != nil {
		t.Fatalf("clearing cheats failed: %v", err)
	}
	if len(c.cheats) != 0 {
		t.Errorf("expected no cheats, got %x", c.cheats)
	}
}

func TestSave_ResumesCursor(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "tune.sav")
	rec := &recorder{}
	c := startCore(t, rec, savePath)
	c.ExecuteFrame(false)
	c.ExecuteFrame(false)

	if err := c.Save(""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(rec.saved) != 1 || rec.saved[0] != savePath {
		t.Errorf("expected DidSave(%s), got %v", savePath, rec.saved)
	}

	resumed := startCore(t, &recorder{}, savePath)
	if resumed.Cursor() != 2 {
		t.Errorf("expected resumed cursor 2, got %d", resumed.Cursor())
	}
}

func TestSave_CreatesMissingDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	savePath := "/saves/new/tune.sav"
	rec := &recorder{}
	c := startCore(t, rec, savePath, WithStore(savefile.New(fsys)))
	c.ExecuteFrame(false)

	if err := c.Save(""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ok, _ := afero.Exists(fsys, savePath); !ok {
		t.Errorf("expected %s to be written", savePath)
	}
	if len(rec.saved) != 1 || rec.saved[0] != savePath {
		t.Errorf("expected DidSave(%s), got %v", savePath, rec.saved)
	}
}

func TestStart_ZippedScript(t *testing.T) {
	script, err := EncodeScript(testFrames)
	if err != nil {
		t.Fatalf("EncodeScript failed: %v", err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Tune (World).psgs")
	if err != nil {
		t.Fatalf("zip Create failed: %v", err)
	}
	w.Write(script)
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tune.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}

	c, _ := New(core.SystemGB, core.Callbacks{})
	defer c.Deallocate()
	if err := c.Start(path, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.ExecuteFrame(false)
	if c.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", c.Cursor())
	}
}

func TestSave_CorruptBattery(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "tune.sav")
	os.WriteFile(savePath, []byte("garbage"), 0644)

	c, _ := New(core.SystemGB, core.Callbacks{})
	defer c.Deallocate()
	if err := c.Start(writeScript(t, testFrames), savePath); !errors.Is(err, errBatteryInvalid) {
		t.Errorf("expected errBatteryInvalid, got %v", err)
	}
}

func TestSaveState_RoundTrip(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "slot.state")
	c := startCore(t, &recorder{}, "")
	c.ExecuteFrame(false)

	if err := c.SaveState(statePath); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	saved := c.serialize()

	c.ExecuteFrame(false)
	c.ExecuteFrame(false)
	if err := c.LoadState(statePath); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if c.Cursor() != 1 || c.Frame() != 1 {
		t.Errorf("expected cursor 1 frame 1, got %d and %d", c.Cursor(), c.Frame())
	}
	if !bytes.Equal(saved, c.serialize()) {
		t.Error("expected restored state to serialize identically")
	}
}

func TestLoadState_Rejects(t *testing.T) {
	dir := t.TempDir()
	c := startCore(t, &recorder{}, "")
	c.ExecuteFrame(false)
	good := c.serialize()

	corrupt := bytes.Clone(good)
	corrupt[len(corrupt)-1] ^= 0xff
	otherGame := bytes.Clone(good)
	otherGame[14] ^= 0xff

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", good[:10], errStateShort},
		{"magic", append([]byte("XXXXXXXXXXXX"), good[12:]...), errStateMagic},
		{"game", otherGame, errStateGame},
		{"corrupt", corrupt, errStateCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			os.WriteFile(path, tt.data, 0644)
			before := c.serialize()
			if err := c.LoadState(path); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !bytes.Equal(before, c.serialize()) {
				t.Error("expected state unchanged after rejected load")
			}
		})
	}
}

func TestSaveState_FailureKeepsPrevious(t *testing.T) {
	mem := afero.NewMemMapFs()
	c := startCore(t, &recorder{}, "", WithStore(savefile.New(mem)))
	if err := c.SaveState("/states/1.state"); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	before, _ := afero.ReadFile(mem, "/states/1.state")

	c.ExecuteFrame(false)
	c.store = savefile.New(afero.NewReadOnlyFs(mem))
	if err := c.SaveState("/states/1.state"); !errors.Is(err, core.ErrPathUnusable) {
		t.Errorf("expected ErrPathUnusable, got %v", err)
	}
	after, _ := afero.ReadFile(mem, "/states/1.state")
	if !bytes.Equal(before, after) {
		t.Error("expected previous state file untouched")
	}
}

func TestPersistenceRequiresGame(t *testing.T) {
	c, _ := New(core.SystemGB, core.Callbacks{})
	defer c.Deallocate()
	for name, err := range map[string]error{
		"save":      c.Save("x"),
		"saveState": c.SaveState("x"),
		"loadState": c.LoadState("x"),
	} {
		if !errors.Is(err, core.ErrInvalidState) {
			t.Errorf("%s: expected ErrInvalidState, got %v", name, err)
		}
	}
}

func TestSetupFailureReleasesBuffers(t *testing.T) {
	for failAfter := 0; failAfter < 2; failAfter++ {
		alloc := core.NewTrackingAllocator()
		alloc.FailAfter = failAfter
		if _, err := New(core.SystemNES, core.Callbacks{}, WithAllocator(alloc)); !errors.Is(err, core.ErrAllocation) {
			t.Errorf("failAfter %d: expected ErrAllocation, got %v", failAfter, err)
		}
		if alloc.Outstanding() != 0 {
			t.Errorf("failAfter %d: expected no leaks, got %d", failAfter, alloc.Outstanding())
		}
	}

	alloc := core.NewTrackingAllocator()
	c, err := New(core.SystemNES, core.Callbacks{}, WithAllocator(alloc))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Deallocate()
	if alloc.Outstanding() != 0 {
		t.Errorf("expected deallocate to free everything, got %d", alloc.Outstanding())
	}
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ok   bool
	}{
		{"valid", []byte("PSGS\x01\x02\x9f\xbf\x00"), true},
		{"bad magic", []byte("PSGX\x01\x00"), false},
		{"bad version", []byte("PSGS\x02\x00"), false},
		{"truncated", []byte("PSGS\x01\x03\x9f"), false},
		{"no frames", []byte("PSGS\x01"), false},
	}
	for _, tt := range tests {
		s, err := parseScript(tt.data)
		if tt.ok && (err != nil || len(s.frames) != 2) {
			t.Errorf("%s: expected 2 frames, got %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidScript) {
			t.Errorf("%s: expected ErrInvalidScript, got %v", tt.name, err)
		}
	}
}
