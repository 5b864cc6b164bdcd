package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go-phrase/phrase"
)

// InputConfig is a saved MIDI keyboard used for recording
type InputConfig struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
	Channel     int    `json:"channel,omitempty"` // 0 = omni
}

// OutputConfig defines the synth MIDI output
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channels []int  `json:"channels,omitempty"` // per track, 1-16
}

// PhraseDefaults seed every new phrase
type PhraseDefaults struct {
	Resolution phrase.Resolution `json:"resolution"`
	Length     int               `json:"length"`
	Polyphonic bool              `json:"polyphonic"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo   int    `json:"lastTempo,omitempty"`
	LastTrack   int    `json:"lastTrack,omitempty"`
	LastProject string `json:"lastProject,omitempty"`
	Palette     string `json:"palette,omitempty"` // GPL file, empty = built in
}

// Config is the main configuration structure
type Config struct {
	Inputs     []InputConfig  `json:"inputs,omitempty"`
	Output     OutputConfig   `json:"output,omitempty"`
	Phrase     PhraseDefaults `json:"phrase"`
	UI         UIConfig       `json:"ui,omitempty"`
	LibraryDir string         `json:"libraryDir,omitempty"`
	Debug      bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Phrase: PhraseDefaults{
			Resolution: phrase.DefaultResolution,
			Length:     1,
		},
		UI: UIConfig{
			LastTempo: 120,
		},
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-phrase"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if it does not exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize replaces values a phrase would reject with the defaults
func (c *Config) normalize() {
	if !c.Phrase.Resolution.Valid() {
		c.Phrase.Resolution = phrase.DefaultResolution
	}
	if !phrase.IsValidLength(c.Phrase.Length) {
		c.Phrase.Length = 1
	}
	if c.UI.LastTempo == 0 {
		c.UI.LastTempo = 120
	}
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Channel returns the 1-based MIDI channel for a track
func (c *Config) Channel(track int) uint8 {
	if track >= 0 && track < len(c.Output.Channels) {
		if ch := c.Output.Channels[track]; ch >= 1 && ch <= 16 {
			return uint8(ch)
		}
	}
	return uint8(track%16 + 1)
}

// FindInput finds an input config by port name
func (c *Config) FindInput(portName string) *InputConfig {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == portName {
			return &c.Inputs[i]
		}
	}
	return nil
}

// AddInput adds or updates an input config
func (c *Config) AddInput(in InputConfig) {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == in.PortName {
			c.Inputs[i] = in
			return
		}
	}
	c.Inputs = append(c.Inputs, in)
}

// AutoConnectInputs maps the port names with autoConnect enabled to their
// recording channel
func (c *Config) AutoConnectInputs() map[string]int {
	result := make(map[string]int)
	for _, in := range c.Inputs {
		if in.AutoConnect {
			result[in.PortName] = in.Channel
		}
	}
	return result
}
