package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"go-phrase/theme"
)

func TestStepGridLayout(t *testing.T) {
	th := theme.New(nil)
	g := StepGrid{
		Rows: []GridRow{
			{Label: "C5", Cells: make([]GridCell, 8)},
			{Label: "B4", Cells: []GridCell{{Kind: CellNote, Velocity: 1, Accent: true}, {Kind: CellHeld}, {}, {}, {}, {}, {}, {}}},
		},
		CursorRow: 0,
		CursorCol: 3,
		Playhead:  -1,
		BeatEvery: 4,
	}
	out := g.Render(th)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines", len(lines))
	}
	// label, 8 cells of 2 columns and one beat separator
	if w := lipgloss.Width(lines[1]); w != 5+16+1 {
		t.Errorf("row width %d", w)
	}
	if !strings.Contains(lines[1], "●") || !strings.Contains(lines[1], "^") || !strings.Contains(lines[1], "─") {
		t.Errorf("note row %q", lines[1])
	}
	if !strings.Contains(lines[0], string(th.Symbols.CursorEmpty)) {
		t.Errorf("cursor row %q", lines[0])
	}
}

func TestRenderSlotBank(t *testing.T) {
	th := theme.New(nil)
	content := make([]bool, 64)
	content[17] = true
	out := RenderSlotBank(th, content, 0, -1, 17)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("%d banks", len(lines))
	}
	if !strings.Contains(lines[1], "B") {
		t.Errorf("bank label %q", lines[1])
	}
	if strings.Count(out, "■") != 1 {
		t.Errorf("filled slots in %q", out)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Transport", Keys: []KeyBinding{{Key: "space", Desc: "play/stop"}}}})
	if out != "Transport\n  space        play/stop" {
		t.Errorf("got %q", out)
	}
}
