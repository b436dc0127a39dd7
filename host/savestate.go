package host

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/user-none/eclipsekit/savefile"
)

// SaveSlots is the number of save state slots per game.
const SaveSlots = 10

// ErrNoGame is returned by slot operations before SetGame.
var ErrNoGame = errors.New("no game set")

// ErrEmptySlot is returned when loading a slot that has never been saved.
var ErrEmptySlot = errors.New("save slot is empty")

// StateSaver is the part of a Coordinator the slot manager drives.
type StateSaver interface {
	SaveState(path string) error
	LoadState(path string) error
}

type slotRecord struct {
	Slot int `json:"slot"`
}

// SaveStateManager maps numbered slots to save state files in a per-game
// directory and remembers the last used slot.
type SaveStateManager struct {
	store       *savefile.Store
	root        string
	gameID      string
	currentSlot int
}

// NewSaveStateManager keeps per-game directories under root.
func NewSaveStateManager(store *savefile.Store, root string) *SaveStateManager {
	return &SaveStateManager{store: store, root: root}
}

// SetGame selects the game and restores its last used slot.
func (m *SaveStateManager) SetGame(gameID string) {
	m.gameID = gameID
	m.currentSlot = 0

	var rec slotRecord
	if err := m.store.ReadJSON(m.slotFile(), &rec); err == nil && rec.Slot >= 0 && rec.Slot < SaveSlots {
		m.currentSlot = rec.Slot
	}
}

// GameDir returns the directory holding the current game's files.
func (m *SaveStateManager) GameDir() string {
	return filepath.Join(m.root, m.gameID)
}

func (m *SaveStateManager) slotFile() string {
	return filepath.Join(m.GameDir(), "slot.json")
}

// SlotPath returns the state file for slot.
func (m *SaveStateManager) SlotPath(slot int) string {
	return filepath.Join(m.GameDir(), fmt.Sprintf("state-%d.state", slot))
}

// ResumePath returns the state file written when a session ends.
func (m *SaveStateManager) ResumePath() string {
	return filepath.Join(m.GameDir(), "resume.state")
}

// BatteryPath returns the battery save path for the current game.
func (m *SaveStateManager) BatteryPath() string {
	return filepath.Join(m.GameDir(), "battery.sav")
}

// CurrentSlot returns the selected slot.
func (m *SaveStateManager) CurrentSlot() int {
	return m.currentSlot
}

// NextSlot cycles to the next slot.
func (m *SaveStateManager) NextSlot() {
	m.currentSlot = (m.currentSlot + 1) % SaveSlots
	m.persistSlot()
}

// PreviousSlot cycles to the previous slot.
func (m *SaveStateManager) PreviousSlot() {
	m.currentSlot--
	if m.currentSlot < 0 {
		m.currentSlot = SaveSlots - 1
	}
	m.persistSlot()
}

func (m *SaveStateManager) persistSlot() {
	if m.gameID == "" {
		return
	}
	// Losing the slot choice is harmless; the default is slot 0.
	_ = m.store.WriteJSON(m.slotFile(), slotRecord{Slot: m.currentSlot})
}

func (m *SaveStateManager) prepare() error {
	if m.gameID == "" {
		return ErrNoGame
	}
	if err := m.store.Fs().MkdirAll(m.GameDir(), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	return nil
}

// Save writes the current state to the selected slot.
func (m *SaveStateManager) Save(s StateSaver) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := s.SaveState(m.SlotPath(m.currentSlot)); err != nil {
		return fmt.Errorf("failed to save slot %d: %w", m.currentSlot, err)
	}
	return nil
}

// Load restores the selected slot.
func (m *SaveStateManager) Load(s StateSaver) error {
	if m.gameID == "" {
		return ErrNoGame
	}
	path := m.SlotPath(m.currentSlot)
	if !m.store.Exists(path) {
		return fmt.Errorf("%w: slot %d", ErrEmptySlot, m.currentSlot)
	}
	if err := s.LoadState(path); err != nil {
		return fmt.Errorf("failed to load slot %d: %w", m.currentSlot, err)
	}
	return nil
}

// HasSlot reports whether slot holds a state.
func (m *SaveStateManager) HasSlot(slot int) bool {
	return m.gameID != "" && m.store.Exists(m.SlotPath(slot))
}

// SaveResume writes the resume state.
func (m *SaveStateManager) SaveResume(s StateSaver) error {
	if err := m.prepare(); err != nil {
		return err
	}
	return s.SaveState(m.ResumePath())
}

// LoadResume restores the resume state.
func (m *SaveStateManager) LoadResume(s StateSaver) error {
	if m.gameID == "" {
		return ErrNoGame
	}
	return s.LoadState(m.ResumePath())
}

// HasResumeState reports whether a resume state exists.
func (m *SaveStateManager) HasResumeState() bool {
	return m.gameID != "" && m.store.Exists(m.ResumePath())
}
