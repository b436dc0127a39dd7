package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/user-none/eclipsekit/core"
)

// LoadConfig loads the configuration from config.json.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := store.Fs().Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	config := &Config{}
	if err := store.ReadJSON(path, config); err != nil {
		return nil, err
	}

	return migrateConfig(config), nil
}

// SaveConfig saves the configuration to config.json atomically.
func SaveConfig(config *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return store.WriteJSON(path, config)
}

// CreateConfigIfMissing creates a default config.json if it doesn't exist.
func CreateConfigIfMissing() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if !store.Exists(path) {
		return SaveConfig(DefaultConfig())
	}
	return nil
}

// DeleteConfig removes the config.json file.
func DeleteConfig() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return store.Remove(path)
}

// migrateConfig fills fields that older or hand-edited configs leave unset.
func migrateConfig(config *Config) *Config {
	if config.Version == 0 {
		config.Version = 1
	}

	if config.Audio.Volume == 0 && !config.Audio.Muted {
		config.Audio.Volume = 1.0
	}
	if config.Audio.BufferMs <= 0 {
		config.Audio.BufferMs = 100
	}
	if config.Video.Scale <= 0 {
		config.Video.Scale = 3
	}
	if config.Emulation.Speed == 0 {
		config.Emulation.Speed = 1.0
	}

	return config
}

// EffectiveVolume returns the output volume with mute applied.
func (c *Config) EffectiveVolume() float64 {
	if c.Audio.Muted {
		return 0
	}
	return c.Audio.Volume
}

// ApplyPreferred copies the preferred core choices into reg. Unknown
// system names are reported; the remaining entries are still applied.
func (c *Config) ApplyPreferred(reg *core.Registry) error {
	var errs []error
	for name, id := range c.Cores.Preferred {
		sys, ok := core.ParseSystem(name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown system %q", name))
			continue
		}
		if err := reg.SetPreferred(sys, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// SetPreferred records id as the preferred core for sys.
func (c *Config) SetPreferred(sys core.System, id string) {
	if c.Cores.Preferred == nil {
		c.Cores.Preferred = make(map[string]string)
	}
	if id == "" {
		delete(c.Cores.Preferred, sys.String())
		return
	}
	c.Cores.Preferred[sys.String()] = id
}
