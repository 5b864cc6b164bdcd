package tui

import (
	"fmt"
	"math"

	"go-phrase/phrase"
	"go-phrase/sequencer"
	"go-phrase/widgets"
)

const gridPitches = 12

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName formats a MIDI pitch with middle C (60) as C4
func noteName(pitch int) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

// buildGrid lays out the measure holding the cursor, one octave around the
// cursor pitch, highest pitch on top.
func buildGrid(v sequencer.View) widgets.StepGrid {
	spm := v.Resolution.StepsPerMeasure()
	first := v.CursorStep / spm * spm

	base := v.CursorPitch - v.CursorPitch%12
	top := base + gridPitches - 1
	if top > 127 {
		top = 127
	}

	g := widgets.StepGrid{CursorCol: v.CursorStep - first, CursorRow: -1, Playhead: -1}
	if spm%phrase.BeatsPerMeasure == 0 {
		g.BeatEvery = spm / phrase.BeatsPerMeasure
	}
	if v.Playhead && v.Position >= first && v.Position < first+spm {
		g.Playhead = v.Position - first
	}

	rowOf := make(map[int]int)
	for pitch := top; pitch >= base; pitch-- {
		if pitch == v.CursorPitch {
			g.CursorRow = len(g.Rows)
		}
		rowOf[pitch] = len(g.Rows)
		g.Rows = append(g.Rows, widgets.GridRow{Label: noteName(pitch), Cells: make([]widgets.GridCell, spm)})
	}

	beatsPerStep := v.Resolution.BeatsPerStep()
	for i := range v.Triggers {
		t := &v.Triggers[i]
		r, ok := rowOf[t.Pitch]
		if !ok {
			continue
		}
		cells := g.Rows[r].Cells
		if !t.Selected() {
			if c := t.Step - first; c >= 0 && c < spm && cells[c].Kind == widgets.CellEmpty {
				cells[c].Kind = widgets.CellOff
			}
			continue
		}
		held := int(math.Ceil(t.Gate/beatsPerStep-1e-9)) - 1
		for s := t.Step + 1; s <= t.Step+held; s++ {
			if c := s - first; c >= 0 && c < spm && cells[c].Kind != widgets.CellNote {
				cells[c] = widgets.GridCell{Kind: widgets.CellHeld}
			}
		}
		if c := t.Step - first; c >= 0 && c < spm {
			cells[c] = widgets.GridCell{
				Kind:     widgets.CellNote,
				Velocity: t.Velocity,
				Accent:   t.Flags.Has(phrase.FlagAccent),
				Slide:    t.Flags.Has(phrase.FlagSlide),
			}
		}
	}
	return g
}
