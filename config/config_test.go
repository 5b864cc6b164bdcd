package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-phrase/phrase"
)

func TestLoadFromMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Phrase.Resolution != phrase.Sixteenth || cfg.Phrase.Length != 1 || cfg.UI.LastTempo != 120 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestSaveToLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Output.PortName = "IAC Driver Bus 1"
	cfg.Output.Channels = []int{10, 2}
	cfg.Phrase.Resolution = phrase.EighthTriplet
	cfg.Phrase.Length = 4
	cfg.Phrase.Polyphonic = true
	cfg.AddInput(InputConfig{PortName: "Keystep", AutoConnect: true, Channel: 3})
	cfg.AddInput(InputConfig{PortName: "MiniLab", AutoConnect: true, Channel: 10})
	cfg.AddInput(InputConfig{PortName: "Launchkey", Channel: 5})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"eighth-triplet"`) {
		t.Errorf("resolution not stored by name:\n%s", data)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Output.PortName != cfg.Output.PortName || got.Phrase != cfg.Phrase {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
	inputs := got.AutoConnectInputs()
	if len(inputs) != 2 || inputs["Keystep"] != 3 || inputs["MiniLab"] != 10 {
		t.Errorf("AutoConnectInputs() = %v", inputs)
	}
}

func TestLoadFromNormalizesBadPhraseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"phrase":{"resolution":"sixteenth","length":3}}`), 0644)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Phrase.Length != 1 {
		t.Errorf("Length = %d, want 1", cfg.Phrase.Length)
	}
}

func TestLoadFromRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"phrase":{"resolution":"1/128"}}`), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for unknown resolution")
	}
}

func TestChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Channels = []int{10, 0}
	tests := []struct {
		track int
		want  uint8
	}{
		{0, 10},
		{1, 2}, // 0 is unset
		{5, 6},
		{17, 2},
	}
	for _, tt := range tests {
		if got := cfg.Channel(tt.track); got != tt.want {
			t.Errorf("Channel(%d) = %d, want %d", tt.track, got, tt.want)
		}
	}
}
