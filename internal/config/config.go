package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Danondso/ambience/internal/synth"
)

// Output backends accepted in audio.backend.
var backends = []string{"portaudio", "beep", "oto"}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Key    string `toml:"key"`
	Device string `toml:"device"`
}

// AudioConfig holds playback settings.
type AudioConfig struct {
	Backend      string  `toml:"backend"`     // "portaudio", "beep" or "oto"
	SampleRate   int     `toml:"sample_rate"` // 0 = ask the device
	BufferFrames int     `toml:"buffer_frames"`
	Volume       float64 `toml:"volume"`
	Vibe         string  `toml:"vibe"`
	Seed         uint64  `toml:"seed"` // 0 = random per session
	ChimeStart   string  `toml:"chime_start"`
	ChimeStop    string  `toml:"chime_stop"`
	ChimeEnabled bool    `toml:"chime_enabled"`
}

// FocusConfig holds focus-session settings.
type FocusConfig struct {
	DurationMin  int  `toml:"duration_min"`
	StopOnFinish bool `toml:"stop_on_finish"`
}

// ServerConfig holds remote-control server settings.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// CustomTheme is a user-defined TUI color palette.
type CustomTheme struct {
	Name       string `toml:"name"`
	Primary    string `toml:"primary"`
	Secondary  string `toml:"secondary"`
	Accent     string `toml:"accent"`
	Error      string `toml:"error"`
	Success    string `toml:"success"`
	Warning    string `toml:"warning"`
	Background string `toml:"background"`
	Text       string `toml:"text"`
	Dimmed     string `toml:"dimmed"`
	Separator  string `toml:"separator"`
}

// Config is the top-level configuration.
type Config struct {
	Theme        string        `toml:"theme"`
	Hotkey       HotkeyConfig  `toml:"hotkey"`
	Audio        AudioConfig   `toml:"audio"`
	Focus        FocusConfig   `toml:"focus"`
	Server       ServerConfig  `toml:"server"`
	CustomThemes []CustomTheme `toml:"custom_theme"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Theme: "synthwave",
		Hotkey: HotkeyConfig{
			Key:    defaultHotkeyKey,
			Device: "",
		},
		Audio: AudioConfig{
			Backend:      "portaudio",
			SampleRate:   0,
			BufferFrames: 512,
			Volume:       0.5,
			Vibe:         "rain",
			Seed:         0,
			ChimeStart:   "",
			ChimeStop:    "",
			ChimeEnabled: true,
		},
		Focus: FocusConfig{
			DurationMin:  25,
			StopOnFinish: true,
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    7645,
		},
	}
}

// Validate normalizes cfg in place and reports settings that cannot be
// used. Volume is clamped rather than rejected.
func (c *Config) Validate() error {
	c.Audio.Backend = strings.ToLower(strings.TrimSpace(c.Audio.Backend))
	if c.Audio.Backend == "" {
		c.Audio.Backend = "portaudio"
	}
	if !contains(backends, c.Audio.Backend) {
		return fmt.Errorf("audio.backend %q: must be one of %s", c.Audio.Backend, strings.Join(backends, ", "))
	}

	vibe, err := synth.ParseVibe(c.Audio.Vibe)
	if err != nil {
		return fmt.Errorf("audio.vibe: %w", err)
	}
	c.Audio.Vibe = vibe.String()

	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate %d: must not be negative", c.Audio.SampleRate)
	}
	if c.Audio.BufferFrames <= 0 {
		c.Audio.BufferFrames = 512
	}
	// NaN fails both comparisons and ends up at 0.
	if !(c.Audio.Volume >= 0) {
		c.Audio.Volume = 0
	} else if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}

	if c.Focus.DurationMin <= 0 {
		return fmt.Errorf("focus.duration_min %d: must be positive", c.Focus.DurationMin)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d: out of range", c.Server.Port)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultPath returns the default config file path (~/.config/ambience/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ambience", "config.toml")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place so a crash mid-write cannot
// corrupt the existing config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ambience-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path. If the file does not exist,
// it returns the default config without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
