package phrase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Note data is the engine's flat note list:
//
//	"<startBeat> <pitch> <velocity> <endBeat> <flags>|<startBeat> ..."
const (
	recordSep  = "|"
	noteFields = 5
)

// MalformedInputError reports the first bad record in a note data string
type MalformedInputError struct {
	Record int    // zero based record index
	Input  string // the offending record
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("note data record %d %q: %v", e.Record, e.Input, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Note is one decoded note data record
type Note struct {
	Start    float64
	Pitch    int
	Velocity float64
	End      float64
	Flags    Flags
}

// Gate is the sounding length in beats, snapped back onto the gate grid
// so float error in end-start does not leak into the trigger
func (n Note) Gate() float64 {
	return SnapGate(n.End - n.Start)
}

func (n Note) record() string {
	return strings.Join([]string{
		formatFloat(n.Start),
		strconv.Itoa(n.Pitch),
		formatFloat(n.Velocity),
		formatFloat(n.End),
		strconv.Itoa(int(n.Flags)),
	}, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNoteData decodes a note data string. Empty input yields no notes.
func ParseNoteData(data string) ([]Note, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var notes []Note
	for i, rec := range strings.Split(data, recordSep) {
		if strings.TrimSpace(rec) == "" {
			// "a|b|" is how the engine ends some lists
			continue
		}
		n, err := parseNote(rec)
		if err != nil {
			return nil, &MalformedInputError{Record: i, Input: rec, Err: err}
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func parseNote(rec string) (Note, error) {
	fields := strings.Fields(rec)
	if len(fields) != noteFields {
		return Note{}, errors.Errorf("want %d fields, got %d", noteFields, len(fields))
	}
	var vals [noteFields]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Note{}, errors.Wrapf(err, "field %d", i)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Note{}, errors.Errorf("field %d is not finite", i)
		}
		vals[i] = v
	}
	// pitch and flags travel as floats on the wire, truncated like the engine does
	return Note{
		Start:    vals[0],
		Pitch:    int(vals[1]),
		Velocity: vals[2],
		End:      vals[3],
		Flags:    Flags(int(vals[4])),
	}, nil
}

// EncodeNoteData is the inverse of ParseNoteData
func EncodeNoteData(notes []Note) string {
	recs := make([]string, len(notes))
	for i, n := range notes {
		recs[i] = n.record()
	}
	return strings.Join(recs, recordSep)
}

// SetNoteData switches on one trigger per record, placed by start beat at the
// phrase's resolution. Existing triggers stay. The whole string is checked
// before any trigger is touched, so a bad record leaves the phrase unchanged.
func (p *StepPhrase) SetNoteData(data string) error {
	notes, err := ParseNoteData(data)
	if err != nil {
		return err
	}
	steps := make([]int, len(notes))
	for i, n := range notes {
		steps[i] = BeatToStep(n.Start, p.resolution)
		if err := checkStep(steps[i], len(p.steps)); err != nil {
			return &MalformedInputError{Record: i, Input: n.record(), Err: err}
		}
	}
	for i, n := range notes {
		p.TriggerOn(steps[i], n.Pitch, n.Gate(), n.Velocity, n.Flags)
	}
	return nil
}

// Notes lists the selected triggers as note data records, in step then
// pitch order. Deselected triggers are not sounding and are left out.
func (p *StepPhrase) Notes() []Note {
	var notes []Note
	for _, t := range p.Triggers() {
		if !t.Selected() {
			continue
		}
		start := t.Beat(p.resolution)
		notes = append(notes, Note{
			Start:    start,
			Pitch:    t.Pitch,
			Velocity: t.Velocity,
			End:      start + t.Gate,
			Flags:    t.Flags,
		})
	}
	return notes
}

// NoteData encodes Notes() in the engine's string form
func (p *StepPhrase) NoteData() string {
	return EncodeNoteData(p.Notes())
}
