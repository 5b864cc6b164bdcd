package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"go-phrase/widgets"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Play      key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	Track     key.Binding

	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	OctaveUp   key.Binding
	OctaveDown key.Binding

	Toggle      key.Binding
	Accent      key.Binding
	Slide       key.Binding
	GateLonger  key.Binding
	GateShorter key.Binding
	VelUp       key.Binding
	VelDown     key.Binding
	Clear       key.Binding

	Finer   key.Binding
	Coarser key.Binding
	Longer  key.Binding
	Shorter key.Binding

	PrevSlot key.Binding
	NextSlot key.Binding
	Queue    key.Binding
	Copy     key.Binding

	Record key.Binding
	Poly   key.Binding
	Mute   key.Binding
	Solo   key.Binding

	Save   key.Binding
	Load   key.Binding
	Browse key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Play:      Key("play/stop", "space", " "),
		TempoUp:   Key("tempo +5", "+", "="),
		TempoDown: Key("tempo -5", "-"),
		Track:     Key("focus track", "1", "2", "3", "4", "5", "6", "7", "8"),

		Left:       Key("step left", "h", "left"),
		Right:      Key("step right", "l", "right"),
		Up:         Key("pitch up", "k", "up"),
		Down:       Key("pitch down", "j", "down"),
		OctaveUp:   Key("octave up", "K", "pgup"),
		OctaveDown: Key("octave down", "J", "pgdown"),

		Toggle:      Key("toggle note", "x", "enter"),
		Accent:      Key("accent", "a"),
		Slide:       Key("slide", "s"),
		GateLonger:  Key("longer gate", ">"),
		GateShorter: Key("shorter gate", "<"),
		VelUp:       Key("velocity up", "v"),
		VelDown:     Key("velocity down", "V"),
		Clear:       Key("clear phrase", "c"),

		Finer:   Key("finer grid", "]"),
		Coarser: Key("coarser grid", "["),
		Longer:  Key("double length", "}"),
		Shorter: Key("halve length", "{"),

		PrevSlot: Key("edit previous slot", ","),
		NextSlot: Key("edit next slot", "."),
		Queue:    Key("play edited slot", "g"),
		Copy:     Key("copy to next slot", "y"),

		Record: Key("record", "r"),
		Poly:   Key("poly/mono", "p"),
		Mute:   Key("mute", "m"),
		Solo:   Key("solo", "o"),

		Save:   Key("save", "ctrl+s"),
		Load:   Key("load latest", "ctrl+o"),
		Browse: Key("projects", "b"),
		Help:   Key("help", "?"),
		Quit:   Key("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Track, k.Toggle, k.Finer, k.Coarser, k.Queue, k.Record, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	groups := make([][]key.Binding, 0, len(k.sections()))
	for _, sec := range k.sections() {
		groups = append(groups, sec.bindings)
	}
	return groups
}

type keySection struct {
	title    string
	bindings []key.Binding
}

func (k keyMap) sections() []keySection {
	return []keySection{
		{"Transport", []key.Binding{k.Play, k.TempoUp, k.TempoDown, k.Track, k.Mute, k.Solo}},
		{"Cursor", []key.Binding{k.Left, k.Right, k.Up, k.Down, k.OctaveUp, k.OctaveDown}},
		{"Notes", []key.Binding{k.Toggle, k.Accent, k.Slide, k.GateLonger, k.GateShorter, k.VelUp, k.VelDown, k.Clear, k.Record, k.Poly}},
		{"Phrase", []key.Binding{k.Finer, k.Coarser, k.Longer, k.Shorter, k.PrevSlot, k.NextSlot, k.Queue, k.Copy}},
		{"Project", []key.Binding{k.Save, k.Load, k.Browse, k.Help, k.Quit}},
	}
}

// helpSections converts the key map for widgets.RenderKeyHelp
func (k keyMap) helpSections() []widgets.KeySection {
	var out []widgets.KeySection
	for _, sec := range k.sections() {
		ws := widgets.KeySection{Title: sec.title}
		for _, b := range sec.bindings {
			h := b.Help()
			ws.Keys = append(ws.Keys, widgets.KeyBinding{Key: h.Key, Desc: h.Desc})
		}
		out = append(out, ws)
	}
	return out
}
