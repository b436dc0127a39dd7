package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_ForSystem(t *testing.T) {
	s := Settings{
		Version: 1,
		Items: []Setting{
			{ID: "bios.gba", System: SystemGBA, Payload: FileSetting{DisplayName: "gba_bios.bin"}},
			{ID: "fast", System: SystemUnknown, Payload: BooleanSetting{Default: true}},
			{ID: "bios.gb", System: SystemGB, Payload: FileSetting{}},
		},
	}

	got := s.ForSystem(SystemGBA)
	if len(got) != 2 || got[0].ID != "bios.gba" || got[1].ID != "fast" {
		t.Errorf("expected [bios.gba fast], got %v", got)
	}
	if len(s.ForSystem(SystemNES)) != 1 {
		t.Errorf("expected only the wildcard setting for NES")
	}
}

func TestSettings_PayloadKind(t *testing.T) {
	s := Settings{Items: []Setting{
		{ID: "a", Payload: FileSetting{}},
		{ID: "b", Payload: BooleanSetting{}},
	}}
	a, _ := s.Lookup("a")
	b, _ := s.Lookup("b")
	if a.Payload.Kind() != SettingKindFile {
		t.Errorf("expected file kind, got %d", a.Payload.Kind())
	}
	if b.Payload.Kind() != SettingKindBoolean {
		t.Errorf("expected boolean kind, got %d", b.Payload.Kind())
	}
	switch p := b.Payload.(type) {
	case BooleanSetting:
		if p.Default {
			t.Error("expected default false")
		}
	default:
		t.Errorf("unexpected payload type %T", p)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("expected lookup of missing setting to fail")
	}
}

func TestFileSetting_Verify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bios.bin")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// md5("hello")
	ok := FileSetting{MD5: "5D41402ABC4B2A76B9719D911017C592"}
	if err := ok.Verify(path); err != nil {
		t.Errorf("expected checksum match, got %v", err)
	}

	bad := FileSetting{MD5: "00000000000000000000000000000000"}
	if err := bad.Verify(path); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	if err := (FileSetting{}).Verify(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("expected empty digest to accept anything, got %v", err)
	}
}
