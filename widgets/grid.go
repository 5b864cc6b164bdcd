package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-phrase/theme"
)

// Cell is what one step of one pitch shows
type Cell int

const (
	CellEmpty Cell = iota
	CellNote       // a note starts here
	CellHeld       // an earlier note's gate covers this step
	CellOff        // switched off trigger
)

// GridCell is a cell plus the note details used for coloring
type GridCell struct {
	Kind     Cell
	Velocity float64
	Accent   bool
	Slide    bool
}

// GridRow is one pitch of the step grid
type GridRow struct {
	Label string
	Cells []GridCell
}

// StepGrid is a page of steps for a range of pitches, highest row first
type StepGrid struct {
	Rows      []GridRow
	CursorRow int // -1 for none
	CursorCol int
	Playhead  int // column, -1 when not on this page
	BeatEvery int // columns per beat, for the separators
}

// Render draws the grid with a label column and beat separators
func (g StepGrid) Render(th *theme.Theme) string {
	sym := th.Symbols
	label := lipgloss.NewStyle().Foreground(th.Muted()).Width(5)
	empty := lipgloss.NewStyle().Foreground(th.Surface())
	held := lipgloss.NewStyle().Foreground(th.FG())
	cursor := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	play := lipgloss.NewStyle().Foreground(th.Success())

	var lines []string
	for r, row := range g.Rows {
		var line strings.Builder
		line.WriteString(label.Render(row.Label))
		for c, cell := range row.Cells {
			if g.BeatEvery > 0 && c > 0 && c%g.BeatEvery == 0 {
				line.WriteString(empty.Render("│"))
			}
			atCursor := r == g.CursorRow && c == g.CursorCol
			atPlayhead := c == g.Playhead

			var s string
			switch {
			case atCursor && cell.Kind == CellNote:
				s = cursor.Render(string(sym.CursorNote))
			case atCursor && atPlayhead:
				s = cursor.Render(string(sym.CursorPlayhead))
			case atCursor:
				s = cursor.Render(string(sym.CursorEmpty))
			case cell.Kind == CellNote:
				s = lipgloss.NewStyle().Foreground(th.Velocity(cell.Velocity)).Render(string(sym.StepNote))
			case cell.Kind == CellHeld:
				s = held.Render(string(sym.StepHeld))
			case cell.Kind == CellOff:
				s = empty.Render(string(sym.StepOff))
			case atPlayhead:
				s = play.Render(string(sym.StepPlayhead))
			default:
				s = empty.Render(string(sym.StepEmpty))
			}
			line.WriteString(s)
			line.WriteString(marker(sym, cell))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// marker is the second character of a cell: accent, slide or a space
func marker(sym theme.Symbols, cell GridCell) string {
	switch {
	case cell.Kind != CellNote:
		return " "
	case cell.Accent:
		return string(sym.Accent)
	case cell.Slide:
		return string(sym.Slide)
	}
	return " "
}

// RenderSlotBank shows the 64 slots as four banks of 16. The edited slot
// gets the cursor color, the playing one the active color and a queued one
// the warning color.
func RenderSlotBank(th *theme.Theme, content []bool, playing, next, editing int) string {
	const perBank = 16
	var lines []string
	for bank := 0; bank*perBank < len(content); bank++ {
		var line strings.Builder
		line.WriteString(lipgloss.NewStyle().Foreground(th.Muted()).Render(fmt.Sprintf("%c ", 'A'+bank)))
		for i := 0; i < perBank && bank*perBank+i < len(content); i++ {
			slot := bank*perBank + i
			r := th.Symbols.SlotEmpty
			if content[slot] {
				r = th.Symbols.SlotFull
			}
			color := th.FG()
			switch slot {
			case editing:
				color = th.Cursor()
			case playing:
				color = th.Active()
			case next:
				color = th.Warning()
			}
			if i > 0 {
				line.WriteString(" ")
			}
			line.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(r)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
