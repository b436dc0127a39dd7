package storage

// Config represents the host configuration stored in config.json.
type Config struct {
	Version   int             `json:"version"`
	Audio     AudioConfig     `json:"audio"`
	Video     VideoConfig     `json:"video"`
	Emulation EmulationConfig `json:"emulation"`
	Cores     CoresConfig     `json:"cores"`
	Window    WindowConfig    `json:"window"`
}

// AudioConfig contains audio-related settings.
type AudioConfig struct {
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
	BufferMs int     `json:"bufferMs"`
}

// VideoConfig contains video-related settings.
type VideoConfig struct {
	Scale int `json:"scale"` // Integer window scale
}

// EmulationConfig contains frame loop settings.
type EmulationConfig struct {
	Speed float64 `json:"speed"` // One of the host speeds, 0.5 to 2
}

// CoresConfig maps system names to the preferred core ID.
type CoresConfig struct {
	Preferred map[string]string `json:"preferred,omitempty"`
}

// WindowConfig contains the window position.
type WindowConfig struct {
	X *int `json:"x,omitempty"` // nil = OS decides position
	Y *int `json:"y,omitempty"`
}

// Library represents the games played, stored in library.json.
type Library struct {
	Version int                   `json:"version"`
	Games   map[string]*GameEntry `json:"games"` // GameID -> entry
}

// GameEntry represents a single game in the library.
type GameEntry struct {
	ID              string `json:"id"`
	File            string `json:"file"`
	DisplayName     string `json:"displayName"`
	System          string `json:"system"`
	CoreID          string `json:"coreId"`
	Favorite        bool   `json:"favorite"`
	PlayTimeSeconds int64  `json:"playTimeSeconds"`
	LastPlayed      int64  `json:"lastPlayed"` // Unix timestamp
	Added           int64  `json:"added"`      // Unix timestamp
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Audio: AudioConfig{
			Volume:   1.0,
			Muted:    false,
			BufferMs: 100,
		},
		Video: VideoConfig{
			Scale: 3,
		},
		Emulation: EmulationConfig{
			Speed: 1.0,
		},
	}
}

// DefaultLibrary returns a new, empty Library.
func DefaultLibrary() *Library {
	return &Library{
		Version: 1,
		Games:   make(map[string]*GameEntry),
	}
}
