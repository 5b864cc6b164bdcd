package sequencer

import (
	"go-phrase/phrase"
)

// Editing operations act on the slot selected by Editing and the cursor.

func (d *PhraseDevice) editing() *phrase.StepPhrase {
	return d.state.Phrases[d.state.Editing]
}

func (d *PhraseDevice) clampCursor() {
	s := d.state
	n := d.editing().NumSteps()
	if s.CursorStep >= n {
		s.CursorStep = n - 1
	}
	if s.CursorStep < 0 {
		s.CursorStep = 0
	}
	if s.CursorPitch < 0 {
		s.CursorPitch = 0
	}
	if s.CursorPitch > 127 {
		s.CursorPitch = 127
	}
}

// MoveCursor moves by steps and semitones, stopping at the edges
func (d *PhraseDevice) MoveCursor(dStep, dPitch int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moveCursor(dStep, dPitch, false)
}

func (d *PhraseDevice) moveCursor(dStep, dPitch int, wrap bool) {
	s := d.state
	s.CursorStep += dStep
	s.CursorPitch += dPitch
	if n := d.editing().NumSteps(); wrap && n > 0 {
		s.CursorStep = ((s.CursorStep % n) + n) % n
	}
	d.clampCursor()
}

// ToggleStep switches the trigger under the cursor. A monophonic track keeps
// one sounding pitch per step.
func (d *PhraseDevice) ToggleStep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	p := d.editing()
	step, pitch := s.CursorStep, s.CursorPitch
	if t, ok := p.TriggerAtStep(step, pitch); ok && t.Selected() {
		p.TriggerOff(step, pitch, s.Polyphonic)
		return
	}
	if !s.Polyphonic {
		d.monophonicClear(p, step, pitch)
	}
	p.TriggerOn(step, pitch, p.Resolution().BeatsPerStep(), defaultVelocity, 0)
}

// ToggleFlag flips a flag on the sounding trigger under the cursor
func (d *PhraseDevice) ToggleFlag(f phrase.Flags) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	p := d.editing()
	t, ok := p.TriggerAtStep(s.CursorStep, s.CursorPitch)
	if !ok || !t.Selected() {
		return
	}
	p.TriggerOn(t.Step, t.Pitch, t.Gate, t.Velocity, t.Flags^f)
}

// AdjustGate lengthens or shortens the trigger under the cursor by whole
// steps, never below one step.
func (d *PhraseDevice) AdjustGate(steps int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	p := d.editing()
	t, ok := p.TriggerAtStep(s.CursorStep, s.CursorPitch)
	if !ok || !t.Selected() {
		return
	}
	unit := p.Resolution().BeatsPerStep()
	gate := t.Gate + float64(steps)*unit
	if gate < unit {
		gate = unit
	}
	p.TriggerOn(t.Step, t.Pitch, gate, t.Velocity, t.Flags)
}

// AdjustVelocity nudges the velocity under the cursor, kept within 0-1
func (d *PhraseDevice) AdjustVelocity(delta float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	p := d.editing()
	t, ok := p.TriggerAtStep(s.CursorStep, s.CursorPitch)
	if !ok || !t.Selected() {
		return
	}
	v := t.Velocity + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.TriggerOn(t.Step, t.Pitch, t.Gate, v, t.Flags)
}

// Finer and Coarser step the resolution one grid at a time
func (d *PhraseDevice) Finer()   { d.shiftResolution(-1) }
func (d *PhraseDevice) Coarser() { d.shiftResolution(1) }

func (d *PhraseDevice) shiftResolution(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.editing()
	old := p.Resolution()
	r := old + phrase.Resolution(delta)
	if !r.Valid() {
		return
	}
	p.SetResolution(r)
	d.state.CursorStep = phrase.RemapStep(d.state.CursorStep, old, r)
	d.clampCursor()
}

// DoubleLength and HalveLength walk the valid lengths 1, 2, 4, 8
func (d *PhraseDevice) DoubleLength() { d.scaleLength(true) }
func (d *PhraseDevice) HalveLength()  { d.scaleLength(false) }

func (d *PhraseDevice) scaleLength(up bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.editing()
	n := p.Length() / 2
	if up {
		n = p.Length() * 2
	}
	p.SetLength(n) // out of range lengths are ignored
	d.clampCursor()
}

// ClearEditing removes every trigger of the edited phrase
func (d *PhraseDevice) ClearEditing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing().Clear()
}

// SelectEditing picks the slot to edit, wrapping around the 64 slots
func (d *PhraseDevice) SelectEditing(slot int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Editing = ((slot % NumPatterns) + NumPatterns) % NumPatterns
	d.clampCursor()
}

// EditingSlot returns the slot being edited
func (d *PhraseDevice) EditingSlot() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Editing
}

// CopyEditing copies the edited phrase's grid and notes into slot dst
func (d *PhraseDevice) CopyEditing(dst int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dst < 0 || dst >= NumPatterns || dst == d.state.Editing {
		return nil
	}
	src := d.editing()
	target := d.state.Phrases[dst]
	target.Clear()
	if err := target.ChangeResolution(src.Resolution()); err != nil {
		return err
	}
	if err := target.ChangeLength(src.Length()); err != nil {
		return err
	}
	return target.SetNoteData(src.NoteData())
}

// TogglePolyphonic switches between one and many pitches per step
func (d *PhraseDevice) TogglePolyphonic() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Polyphonic = !d.state.Polyphonic
}

// View is a copy of what the editor shows
type View struct {
	ID          string
	Playing     string // ID of the playing slot
	Next        string // ID of the queued slot, empty if none
	Pattern     int    // playing slot
	NextSlot    int    // queued slot, -1 if none
	Editing     int
	Resolution  phrase.Resolution
	Length      int
	NumSteps    int
	Position    int
	Playhead    bool // the edited slot is the one playing
	CursorStep  int
	CursorPitch int
	Polyphonic  bool
	Recording   bool
	Content     []bool
	Triggers    []phrase.Trigger // all triggers of the edited phrase, step then pitch order
}

// Snapshot copies the edit state under the device lock
func (d *PhraseDevice) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	p := d.editing()
	v := View{
		ID:          p.ID(),
		Playing:     s.Phrases[s.Pattern].ID(),
		Pattern:     s.Pattern,
		NextSlot:    s.Next,
		Editing:     s.Editing,
		Resolution:  p.Resolution(),
		Length:      p.Length(),
		NumSteps:    p.NumSteps(),
		Position:    p.Position(),
		Playhead:    s.Editing == s.Pattern && d.running,
		CursorStep:  s.CursorStep,
		CursorPitch: s.CursorPitch,
		Polyphonic:  s.Polyphonic,
		Recording:   s.Recording,
		Content:     make([]bool, NumPatterns),
	}
	if s.Next >= 0 {
		v.Next = s.Phrases[s.Next].ID()
	}
	for i, ph := range s.Phrases {
		v.Content[i] = ph.HasTriggers()
	}
	for _, t := range p.Triggers() {
		v.Triggers = append(v.Triggers, *t)
	}
	return v
}
