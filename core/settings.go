package core

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChecksumMismatch is returned by FileSetting.Verify when a file does not
// match the expected digest.
var ErrChecksumMismatch = errors.New("file checksum mismatch")

// SettingKind tags the payload carried by a Setting.
type SettingKind uint32

const (
	SettingKindFile SettingKind = iota
	SettingKindBoolean
)

// SettingPayload is the kind-specific part of a Setting. The only
// implementations are FileSetting and BooleanSetting.
type SettingPayload interface {
	Kind() SettingKind
	settingPayload()
}

// FileSetting asks the host for a file such as a BIOS image.
type FileSetting struct {
	// MD5 is the expected lowercase hex digest. Empty means any file is accepted.
	MD5         string
	DisplayName string
}

func (FileSetting) Kind() SettingKind { return SettingKindFile }
func (FileSetting) settingPayload()   {}

// Verify hashes the file at path and compares it with MD5.
func (f FileSetting) Verify(path string) error {
	if f.MD5 == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(sum, f.MD5) {
		return fmt.Errorf("%w: %s has %s, expected %s", ErrChecksumMismatch, path, sum, f.MD5)
	}
	return nil
}

// BooleanSetting is an on/off toggle.
type BooleanSetting struct {
	Default bool
}

func (BooleanSetting) Kind() SettingKind { return SettingKindBoolean }
func (BooleanSetting) settingPayload()   {}

// Setting is one host-configurable option a core declares.
type Setting struct {
	// ID is unique within the core.
	ID string
	// System scopes the setting; SystemUnknown applies to every system.
	System      System
	DisplayName string
	Required    bool
	Payload     SettingPayload
}

// Settings is the versioned list of options a core declares.
type Settings struct {
	Version uint16
	Items   []Setting
}

// ForSystem returns the items that apply to sys.
func (s Settings) ForSystem(sys System) []Setting {
	var out []Setting
	for _, item := range s.Items {
		if item.System == SystemUnknown || item.System == sys {
			out = append(out, item)
		}
	}
	return out
}

// Lookup returns the setting with the given ID.
func (s Settings) Lookup(id string) (Setting, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Setting{}, false
}
