package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-phrase/debug"
	"go-phrase/midi"
	"go-phrase/phrase"
	"go-phrase/sequencer"
	"go-phrase/theme"
	"go-phrase/widgets"
)

const (
	tempoStep    = 5
	velocityStep = 0.1
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme
	Library   *sequencer.Library

	keys     keyMap
	help     help.Model
	showHelp bool
	browser  *browser // project browser, nil when closed
	status   string
	inputs   map[string]bool // connected keyboard ports
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme, lib *sequencer.Library) Model {
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Library:   lib,
		keys:      defaultKeyMap(),
		help:      help.New(),
		inputs:    make(map[string]bool),
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.inputs[event.ID] = true
			m.Manager.SetMIDIInput(event.Controller)
			m.status = "connected " + event.ID
		case midi.DeviceDisconnected:
			delete(m.inputs, event.ID)
			m.status = "disconnected " + event.ID
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.browser != nil {
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			m.Manager.Stop()
			return m, tea.Quit
		}
		if m.browser.handleKey(msg.String()) {
			m.status = m.browser.status
			m.browser = nil
		}
		return m, nil
	}

	k := m.keys
	mgr := m.Manager
	track, d := mgr.Focused()

	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		mgr.Stop()
		return m, tea.Quit

	case key.Matches(msg, k.Play):
		if _, playing, _ := mgr.GetState(); playing {
			mgr.Stop()
		} else {
			mgr.Play()
		}

	case key.Matches(msg, k.TempoUp):
		_, _, tempo := mgr.GetState()
		mgr.SetTempo(tempo + tempoStep)

	case key.Matches(msg, k.TempoDown):
		_, _, tempo := mgr.GetState()
		mgr.SetTempo(tempo - tempoStep)

	case key.Matches(msg, k.Track):
		mgr.FocusTrack(int(msg.String()[0] - '1'))

	case key.Matches(msg, k.Left):
		d.MoveCursor(-1, 0)
	case key.Matches(msg, k.Right):
		d.MoveCursor(1, 0)
	case key.Matches(msg, k.Up):
		d.MoveCursor(0, 1)
	case key.Matches(msg, k.Down):
		d.MoveCursor(0, -1)
	case key.Matches(msg, k.OctaveUp):
		d.MoveCursor(0, 12)
	case key.Matches(msg, k.OctaveDown):
		d.MoveCursor(0, -12)

	case key.Matches(msg, k.Toggle):
		d.ToggleStep()
	case key.Matches(msg, k.Accent):
		d.ToggleFlag(phrase.FlagAccent)
	case key.Matches(msg, k.Slide):
		d.ToggleFlag(phrase.FlagSlide)
	case key.Matches(msg, k.GateLonger):
		d.AdjustGate(1)
	case key.Matches(msg, k.GateShorter):
		d.AdjustGate(-1)
	case key.Matches(msg, k.VelUp):
		d.AdjustVelocity(velocityStep)
	case key.Matches(msg, k.VelDown):
		d.AdjustVelocity(-velocityStep)
	case key.Matches(msg, k.Clear):
		d.ClearEditing()

	case key.Matches(msg, k.Finer):
		d.Finer()
	case key.Matches(msg, k.Coarser):
		d.Coarser()
	case key.Matches(msg, k.Longer):
		d.DoubleLength()
	case key.Matches(msg, k.Shorter):
		d.HalveLength()

	case key.Matches(msg, k.PrevSlot):
		d.SelectEditing(d.EditingSlot() - 1)
	case key.Matches(msg, k.NextSlot):
		d.SelectEditing(d.EditingSlot() + 1)
	case key.Matches(msg, k.Queue):
		mgr.QueuePattern(track, d.EditingSlot())
	case key.Matches(msg, k.Copy):
		src := d.EditingSlot()
		dst := (src + 1) % sequencer.NumPatterns
		if err := d.CopyEditing(dst); err != nil {
			m.status = "copy: " + err.Error()
			break
		}
		d.SelectEditing(dst)
		m.status = fmt.Sprintf("copied %s to %s", d.Phrase(src).ID(), d.Phrase(dst).ID())

	case key.Matches(msg, k.Record):
		d.ToggleRecording()
	case key.Matches(msg, k.Poly):
		d.TogglePolyphonic()
	case key.Matches(msg, k.Mute):
		mgr.ToggleMute(track)
	case key.Matches(msg, k.Solo):
		mgr.ToggleSolo(track)

	case key.Matches(msg, k.Save):
		m.status = m.save()
	case key.Matches(msg, k.Load):
		m.status = m.load()
	case key.Matches(msg, k.Browse):
		if m.Library == nil {
			m.status = "no project library"
			break
		}
		m.browser = newBrowser(m.Library, mgr)

	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) save() string {
	if m.Library == nil {
		return "no project library"
	}
	name := m.Manager.ProjectName()
	filename, err := m.Manager.SaveProject(m.Library, name)
	if err != nil {
		debug.Log("tui", "save: %v", err)
		return "save failed: " + err.Error()
	}
	return "saved " + filename
}

func (m Model) load() string {
	if m.Library == nil {
		return "no project library"
	}
	name := m.Manager.ProjectName()
	if name == "" {
		return "nothing saved yet"
	}
	if err := m.Manager.LoadProject(m.Library, name, ""); err != nil {
		debug.Log("tui", "load: %v", err)
		return "load failed: " + err.Error()
	}
	return "loaded " + name
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	tick, playing, tempo := m.Manager.GetState()
	track, d := m.Manager.Focused()
	v := d.Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	if playing {
		playState = "PLAY"
	}
	project := m.Manager.ProjectName()
	if project == "" {
		project = "untitled"
	}
	bar := tick/sequencer.TicksPerMeasure + 1
	header := headerStyle.Render(fmt.Sprintf("go-phrase  %s  %3dbpm  bar:%03d  %s%s", playState, tempo, bar, project, m.inputStatus()))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	if m.browser != nil {
		out.WriteString(m.browser.view(m.Theme))
		return out.String()
	}
	out.WriteString(m.trackLine(track))
	out.WriteString("\n")
	out.WriteString(m.phraseLine(v, warnStyle, dimStyle))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderSlotBank(m.Theme, v.Content, v.Pattern, v.NextSlot, v.Editing))
	out.WriteString("\n\n")
	out.WriteString(buildGrid(v).Render(m.Theme))
	out.WriteString("\n\n")

	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(m.keys.helpSections())))
	} else {
		out.WriteString(m.help.View(m.keys))
	}

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) trackLine(focused int) string {
	var parts []string
	for i := 0; i < sequencer.NumTracks; i++ {
		ch, muted, solo := m.Manager.TrackStatus(i)
		label := fmt.Sprintf("%d:ch%-2d", i+1, ch)
		switch {
		case muted:
			label += "M"
		case solo:
			label += "S"
		default:
			label += " "
		}
		style := lipgloss.NewStyle().Foreground(m.Theme.FG())
		if i == focused {
			style = style.Foreground(m.Theme.Cursor()).Bold(true)
		} else if muted {
			style = style.Foreground(m.Theme.Muted())
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, " ")
}

func (m Model) phraseLine(v sequencer.View, warn, dim lipgloss.Style) string {
	mode := "mono"
	if v.Polyphonic {
		mode = "poly"
	}
	line := fmt.Sprintf("edit %s  play %s", v.ID, v.Playing)
	if v.Next != "" {
		line += warn.Render("  next " + v.Next)
	}
	line += dim.Render(fmt.Sprintf("  %s  %d bar  %s  %s %s", v.Resolution.Label(), v.Length, mode, noteName(v.CursorPitch), stepLabel(v)))
	if v.Recording {
		line += warn.Render("  REC")
	}
	return line
}

// stepLabel is the cursor position as bar.step, both from 1
func stepLabel(v sequencer.View) string {
	spm := v.Resolution.StepsPerMeasure()
	return fmt.Sprintf("%d.%02d", v.CursorStep/spm+1, v.CursorStep%spm+1)
}

func (m Model) inputStatus() string {
	if len(m.inputs) == 0 {
		return ""
	}
	names := make([]string, 0, len(m.inputs))
	for name := range m.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return "  in:" + strings.Join(names, ",")
}
