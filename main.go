package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-phrase/config"
	"go-phrase/debug"
	"go-phrase/midi"
	"go-phrase/sequencer"
	"go-phrase/theme"
	"go-phrase/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-phrase/config.json)")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-phrase/debug.log")
	projectName := flag.String("project", "", "project to open (latest save)")
	port := flag.String("port", "", "MIDI out port name or part of it")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *debugLog || cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log: %v\n", err)
		}
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		fmt.Printf("Warning: %v, using built in palette\n", err)
	}
	th := theme.New(palette)

	defaults := sequencer.Defaults{
		Resolution: cfg.Phrase.Resolution,
		Length:     cfg.Phrase.Length,
		Polyphonic: cfg.Phrase.Polyphonic,
	}
	libDir := cfg.LibraryDir
	if libDir == "" {
		if libDir, err = sequencer.DefaultLibraryDir(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	lib := sequencer.NewLibrary(libDir, defaults)

	name := *projectName
	if name == "" {
		name = cfg.UI.LastProject
	}
	state := openState(lib, name, cfg, defaults)

	// MIDI output
	var out midi.Output = midi.Discard{}
	outName := *port
	if outName == "" {
		outName = cfg.Output.PortName
	}
	if outName != "" {
		po, err := midi.OpenOutput(outName)
		if err != nil {
			fmt.Printf("Warning: %v, notes will not be sent\n", err)
		} else {
			out = po
			debug.Log("main", "output %s", po.Name())
		}
	}

	manager := sequencer.NewManager(state, out)
	manager.FocusTrack(cfg.UI.LastTrack)
	manager.StartRuntime()
	defer manager.Shutdown()

	// Keyboards for recording, hot plugged, each on its own channel
	deviceMgr := midi.NewDeviceManager(cfg.AutoConnectInputs())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	m := tui.NewModel(manager, deviceMgr, th, lib)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// remember where we were
	_, _, tempo := manager.GetState()
	track, _ := manager.Focused()
	cfg.UI.LastTempo = tempo
	cfg.UI.LastTrack = track
	cfg.UI.LastProject = manager.ProjectName()
	if err := saveConfig(cfg, *configPath); err != nil {
		debug.Log("main", "save config: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return cfg.SaveTo(path)
	}
	return cfg.Save()
}

// openState loads the latest save of name, or starts a fresh state set up
// from the config
func openState(lib *sequencer.Library, name string, cfg *config.Config, defaults sequencer.Defaults) *sequencer.State {
	if name != "" {
		s, err := lib.LoadState(name, "")
		if err == nil {
			return s
		}
		fmt.Printf("Warning: %v, starting empty\n", err)
	}

	s := sequencer.NewState(defaults)
	s.ProjectName = name
	s.Tempo = cfg.UI.LastTempo
	if s.Tempo < sequencer.MinTempo || s.Tempo > sequencer.MaxTempo {
		s.Tempo = 120
	}
	for i, ts := range s.Tracks {
		ts.Channel = cfg.Channel(i)
	}
	return s
}
