package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-phrase/phrase"
	"go-phrase/sequencer"
	"go-phrase/theme"
	"go-phrase/widgets"
)

func newTestModel(t *testing.T) Model {
	mgr := sequencer.NewManager(sequencer.NewState(sequencer.DefaultDefaults), nil)
	lib := sequencer.NewLibrary(t.TempDir(), sequencer.DefaultDefaults)
	return NewModel(mgr, nil, theme.New(nil), lib)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+o":
			msg = tea.KeyMsg{Type: tea.KeyCtrlO}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestKeysEditFocusedTrack(t *testing.T) {
	m := press(newTestModel(t), "3", "l", "l", "k", "x", "a")

	d := m.Manager.Device(2)
	tr, ok := d.Phrase(0).TriggerAtStep(2, 61)
	if !ok || !tr.Selected() || !tr.Flags.Has(phrase.FlagAccent) {
		t.Fatalf("trigger %v", tr)
	}
	if m.Manager.Device(0).Phrase(0).HasTriggers() {
		t.Error("unfocused track edited")
	}
}

func TestKeysGridAndSlots(t *testing.T) {
	m := press(newTestModel(t), "[", "}", ".", ".", "g")
	d := m.Manager.Device(0)
	if p := d.Phrase(0); p.Resolution() != phrase.EighthTriplet || p.Length() != 2 {
		t.Errorf("slot 0 res %v length %d", p.Resolution(), p.Length())
	}
	if d.EditingSlot() != 2 || d.CurrentPattern() != 2 {
		t.Errorf("editing %d playing %d", d.EditingSlot(), d.CurrentPattern())
	}
}

func TestKeysTempoAndMute(t *testing.T) {
	m := press(newTestModel(t), "+", "+", "-", "m")
	if _, _, tempo := m.Manager.GetState(); tempo != 125 {
		t.Errorf("tempo %d", tempo)
	}
	if _, muted, _ := m.Manager.TrackStatus(0); !muted {
		t.Error("track 1 not muted")
	}
}

func TestCopyKey(t *testing.T) {
	m := press(newTestModel(t), "x", "y")
	d := m.Manager.Device(0)
	if d.EditingSlot() != 1 || !d.Phrase(1).HasTriggers() {
		t.Errorf("editing %d, slot 1 content %v", d.EditingSlot(), d.Phrase(1).HasTriggers())
	}
	if !strings.Contains(m.status, "A01 to A02") {
		t.Errorf("status %q", m.status)
	}
}

func TestSaveAndLoadKeys(t *testing.T) {
	m := press(newTestModel(t), "x", "ctrl+s")
	if !strings.HasPrefix(m.status, "saved ") {
		t.Fatalf("status %q", m.status)
	}
	if m.Manager.ProjectName() != "untitled" {
		t.Errorf("project %q", m.Manager.ProjectName())
	}

	m = press(m, "c")
	if m.Manager.Device(0).Phrase(0).HasTriggers() {
		t.Fatal("clear did nothing")
	}
	m = press(m, "ctrl+o")
	if m.status != "loaded untitled" || !m.Manager.Device(0).Phrase(0).HasTriggers() {
		t.Errorf("status %q", m.status)
	}
}

func TestProjectBrowser(t *testing.T) {
	m := press(newTestModel(t), "x", "ctrl+s", "b")
	if m.browser == nil {
		t.Fatal("browser not open")
	}
	if out := m.View(); !strings.Contains(out, "untitled") || !strings.Contains(out, "Projects") {
		t.Errorf("browser view %q", out)
	}

	m = press(m, "n", "l", "i", "v", "e", "enter")
	if m.Manager.ProjectName() != "live" {
		t.Errorf("project %q", m.Manager.ProjectName())
	}
	projects, _ := m.Library.ListProjects()
	if strings.Join(projects, ",") != "live,untitled" {
		t.Errorf("projects %v", projects)
	}

	// second row is untitled, load its latest save
	m = press(m, "j", "enter")
	if m.browser != nil || m.status != "loaded untitled" {
		t.Errorf("status %q", m.status)
	}
	if !m.Manager.Device(0).Phrase(0).HasTriggers() {
		t.Error("save not loaded")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !next.(Model).quitting {
		t.Error("q did not quit")
	}
	if next.View() != "" {
		t.Error("view after quit")
	}
}

func TestViewShowsPhrase(t *testing.T) {
	m := press(newTestModel(t), "x", "r")
	out := m.View()
	for _, want := range []string{"STOP", "120bpm", "edit A01", "1/16", "REC", "C4"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "?")
	if !strings.Contains(m.View(), "Transport") {
		t.Error("full help not shown")
	}
}

func TestBuildGrid(t *testing.T) {
	d := sequencer.NewPhraseDevice(sequencer.NewPhraseState(sequencer.DefaultDefaults))
	d.Phrase(0).TriggerOn(1, 64, 0.75, 1, phrase.FlagSlide)
	d.Phrase(0).TriggerOn(20, 60, 0.25, 1, 0) // second measure, but phrase is one bar
	d.MoveCursor(3, 0)

	g := buildGrid(d.Snapshot())
	if len(g.Rows) != 12 || g.Rows[0].Label != "B4" || g.Rows[11].Label != "C4" {
		t.Fatalf("rows %d first %q", len(g.Rows), g.Rows[0].Label)
	}
	if g.CursorRow != 11 || g.CursorCol != 3 || g.BeatEvery != 4 {
		t.Errorf("cursor %d/%d beat %d", g.CursorRow, g.CursorCol, g.BeatEvery)
	}
	e := g.Rows[7].Cells // E4
	if !e[1].Slide || e[2].Kind != widgets.CellHeld || e[3].Kind != widgets.CellHeld || e[4].Kind != widgets.CellEmpty {
		t.Errorf("E4 row %+v", e[:5])
	}
}

func TestNoteName(t *testing.T) {
	for pitch, want := range map[int]string{60: "C4", 0: "C-1", 127: "G9", 70: "A#4"} {
		if got := noteName(pitch); got != want {
			t.Errorf("noteName(%d) = %q, want %q", pitch, got, want)
		}
	}
}
