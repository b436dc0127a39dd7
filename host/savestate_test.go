package host

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/user-none/eclipsekit/savefile"
)

type stateRecorder struct {
	saved  []string
	loaded []string
	store  *savefile.Store
}

func (r *stateRecorder) SaveState(path string) error {
	r.saved = append(r.saved, path)
	return r.store.WriteAtomic(path, []byte("state"))
}

func (r *stateRecorder) LoadState(path string) error {
	r.loaded = append(r.loaded, path)
	return nil
}

func newSlotManager(t *testing.T) (*SaveStateManager, *stateRecorder) {
	t.Helper()
	store := savefile.New(afero.NewMemMapFs())
	return NewSaveStateManager(store, "/saves"), &stateRecorder{store: store}
}

func TestSaveStateManager_NoGame(t *testing.T) {
	m, rec := newSlotManager(t)
	if err := m.Save(rec); !errors.Is(err, ErrNoGame) {
		t.Errorf("expected ErrNoGame from Save, got %v", err)
	}
	if err := m.Load(rec); !errors.Is(err, ErrNoGame) {
		t.Errorf("expected ErrNoGame from Load, got %v", err)
	}
	if m.HasResumeState() {
		t.Error("expected no resume state without a game")
	}
}

func TestSaveStateManager_SlotCycling(t *testing.T) {
	m, _ := newSlotManager(t)
	m.SetGame("abc123")

	m.PreviousSlot()
	if m.CurrentSlot() != SaveSlots-1 {
		t.Errorf("expected wrap to slot %d, got %d", SaveSlots-1, m.CurrentSlot())
	}
	m.NextSlot()
	m.NextSlot()
	if m.CurrentSlot() != 1 {
		t.Errorf("expected slot 1, got %d", m.CurrentSlot())
	}
}

func TestSaveStateManager_SlotPersistsPerGame(t *testing.T) {
	m, _ := newSlotManager(t)
	m.SetGame("game-a")
	m.NextSlot()
	m.NextSlot()
	m.NextSlot()

	m.SetGame("game-b")
	if m.CurrentSlot() != 0 {
		t.Errorf("expected new game to start at slot 0, got %d", m.CurrentSlot())
	}

	m.SetGame("game-a")
	if m.CurrentSlot() != 3 {
		t.Errorf("expected slot 3 restored, got %d", m.CurrentSlot())
	}
}

func TestSaveStateManager_SaveLoad(t *testing.T) {
	m, rec := newSlotManager(t)
	m.SetGame("abc123")
	m.NextSlot()
	m.NextSlot()

	if err := m.Load(rec); !errors.Is(err, ErrEmptySlot) {
		t.Fatalf("expected ErrEmptySlot, got %v", err)
	}

	if err := m.Save(rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := "/saves/abc123/state-2.state"
	if len(rec.saved) != 1 || rec.saved[0] != want {
		t.Errorf("expected save to %s, got %v", want, rec.saved)
	}
	if !m.HasSlot(2) || m.HasSlot(3) {
		t.Error("expected only slot 2 to be occupied")
	}

	if err := m.Load(rec); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rec.loaded) != 1 || rec.loaded[0] != want {
		t.Errorf("expected load from %s, got %v", want, rec.loaded)
	}
}

func TestSaveStateManager_Resume(t *testing.T) {
	m, rec := newSlotManager(t)
	m.SetGame("abc123")
	if m.HasResumeState() {
		t.Fatal("expected no resume state yet")
	}
	if err := m.SaveResume(rec); err != nil {
		t.Fatalf("SaveResume failed: %v", err)
	}
	if !m.HasResumeState() {
		t.Fatal("expected resume state after save")
	}
	if err := m.LoadResume(rec); err != nil {
		t.Fatalf("LoadResume failed: %v", err)
	}
	if rec.loaded[0] != "/saves/abc123/resume.state" {
		t.Errorf("unexpected resume path %s", rec.loaded[0])
	}
}
