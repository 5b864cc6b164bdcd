package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Slot bank
	SlotFull  rune // ■ slot has notes
	SlotEmpty rune // □ slot never written

	// Step grid (no cursor)
	StepEmpty    rune // · no note
	StepNote     rune // ● note starts here
	StepHeld     rune // ─ gate still open
	StepOff      rune // ○ switched off trigger kept for reuse
	StepPlayhead rune // ▶ playhead on an empty step

	// Step grid (with cursor)
	CursorEmpty    rune // □ cursor on empty
	CursorNote     rune // ◉ cursor on a note
	CursorPlayhead rune // ▷ cursor under the playhead

	Accent rune // ^ accented note
	Slide  rune // ~ slide into the next note
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Plasma
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			SlotFull:  '■',
			SlotEmpty: '□',

			StepEmpty:    '·',
			StepNote:     '●',
			StepHeld:     '─',
			StepOff:      '○',
			StepPlayhead: '▶',

			CursorEmpty:    '□',
			CursorNote:     '◉',
			CursorPlayhead: '▷',

			Accent: '^',
			Slide:  '~',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Velocity colors a note by its 0-1 velocity, between the muted and
// success roles
func (t *Theme) Velocity(v float64) lipgloss.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return t.Color(RoleMuted + v*(RoleSuccess-RoleMuted))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
