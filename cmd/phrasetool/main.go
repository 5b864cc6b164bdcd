package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"gopkg.in/yaml.v3"

	"go-phrase/midi"
	"go-phrase/phrase"
	"go-phrase/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		listPorts()
	case "poll":
		pollDevices()
	case "scale":
		err = playScale(os.Args[2:])
	case "dump":
		err = dump(os.Args[2:])
	case "check":
		err = check(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Phrase tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                    - List all MIDI ports")
	fmt.Println("  poll                    - Poll for device changes")
	fmt.Println("  scale <port> [channel]  - Play a C major scale to test an output")
	fmt.Println("  dump <project> [save]   - Print a saved project (latest save by default)")
	fmt.Println("  check <noteData> [res]  - Parse note data on a grid (default 1/16)")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		inNames := midi.InPorts()
		outNames := midi.OutPorts()

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)
			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}

func playScale(args []string) error {
	if len(args) < 1 {
		return errors.New("scale needs a port name")
	}
	channel := 1
	if len(args) > 1 {
		if _, err := fmt.Sscanf(args[1], "%d", &channel); err != nil || channel < 1 || channel > 16 {
			return errors.Errorf("bad channel %q", args[1])
		}
	}

	out, err := midi.OpenOutput(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Playing on %s channel %d\n", out.Name(), channel)

	for _, note := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		ch := uint8(channel - 1)
		if err := out.Send(midi.Event{Type: midi.NoteOn, Channel: ch, Note: note, Velocity: midi.Velocity(0.8)}); err != nil {
			return errors.Wrap(err, "note on")
		}
		time.Sleep(200 * time.Millisecond)
		if err := out.Send(midi.Event{Type: midi.NoteOff, Channel: ch, Note: note}); err != nil {
			return errors.Wrap(err, "note off")
		}
	}
	return nil
}

func dump(args []string) error {
	if len(args) < 1 {
		return errors.New("dump needs a project name")
	}
	dir, err := sequencer.DefaultLibraryDir()
	if err != nil {
		return err
	}
	lib := sequencer.NewLibrary(dir, sequencer.DefaultDefaults)

	filename := ""
	if len(args) > 1 {
		filename = args[1]
	}
	p, err := lib.Load(args[0], filename)
	if err != nil {
		return err
	}
	if _, err := p.State(sequencer.DefaultDefaults); err != nil {
		return errors.Wrap(err, "project does not load")
	}

	fmt.Printf("%s  version %d  %d bpm\n", args[0], p.Version, p.Tempo)
	for i, td := range p.Tracks {
		fmt.Printf("track %d  ch%d  playing %s\n", i+1, td.Channel, phrase.PatternID(td.Pattern/phrase.PatternsPerBank, td.Pattern%phrase.PatternsPerBank))
		for _, pd := range td.Phrases {
			notes, err := phrase.ParseNoteData(pd.NoteData)
			if err != nil {
				return errors.Wrapf(err, "track %d", i+1)
			}
			fmt.Printf("  %s  %-5s %d bar  %d notes\n", phrase.PatternID(pd.Bank, pd.Index), pd.Resolution.Label(), pd.Length, len(notes))
		}
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s", data)
	return nil
}

func check(args []string) error {
	if len(args) < 1 {
		return errors.New("check needs note data")
	}
	r := phrase.DefaultResolution
	if len(args) > 1 {
		var err error
		if r, err = phrase.ParseResolution(args[1]); err != nil {
			return err
		}
	}

	p := phrase.New(0, 0)
	p.SetResolution(r)
	p.SetLength(phrase.MaxMeasures)
	if err := p.SetNoteData(args[0]); err != nil {
		return err
	}
	for _, t := range p.Triggers() {
		fmt.Println(t)
	}
	fmt.Printf("re-encoded: %s\n", p.NoteData())
	return nil
}
