package phrase

import (
	"fmt"
	"sort"
)

// NumBanks and PatternsPerBank mirror the engine's pattern slots (A01..D16)
const (
	NumBanks        = 4
	PatternsPerBank = 16
)

// StepPhrase is the trigger map for one bank/index pattern slot:
// step -> pitch -> Trigger, sized for the current resolution and length.
//
// A StepPhrase does no locking. Callers that share one between goroutines
// must serialize access themselves.
type StepPhrase struct {
	bank  int
	index int

	resolution Resolution
	length     int
	position   int
	active     bool

	hasTriggers bool
	steps       stepMap

	listeners listeners
}

// New creates an empty one-measure phrase at the default resolution
func New(bank, index int) *StepPhrase {
	p := &StepPhrase{
		bank:       bank,
		index:      index,
		resolution: DefaultResolution,
		length:     1,
	}
	p.Clear()
	return p
}

func (p *StepPhrase) Bank() int              { return p.bank }
func (p *StepPhrase) Index() int             { return p.index }
func (p *StepPhrase) Resolution() Resolution { return p.resolution }
func (p *StepPhrase) Length() int            { return p.length }
func (p *StepPhrase) Position() int          { return p.position }
func (p *StepPhrase) HasTriggers() bool      { return p.hasTriggers }

// NumSteps is length * StepsPerMeasure(resolution)
func (p *StepPhrase) NumSteps() int {
	return len(p.steps)
}

// Active marks the phrase as the one currently loaded in the engine
func (p *StepPhrase) Active() bool     { return p.active }
func (p *StepPhrase) SetActive(v bool) { p.active = v }

// ID formats bank/index the way the engine names patterns ("A01", "C16").
func (p *StepPhrase) ID() string {
	return PatternID(p.bank, p.index)
}

func (p *StepPhrase) String() string {
	return p.ID()
}

// PatternID formats a bank/index pair ("A01")
func PatternID(bank, index int) string {
	if bank < 0 || bank >= 26 {
		return fmt.Sprintf("%d:%02d", bank, index+1)
	}
	return fmt.Sprintf("%c%02d", 'A'+rune(bank), index+1)
}

// Subscribe registers l and returns a handle for Unsubscribe
func (p *StepPhrase) Subscribe(l Listener) Subscription {
	return p.listeners.add(l)
}

// Unsubscribe removes a listener; unknown handles are ignored
func (p *StepPhrase) Unsubscribe(id Subscription) {
	p.listeners.remove(id)
}

// Queries

// TriggerAtStep returns the trigger at (step, pitch), selected or not.
// Out of range steps are simply empty.
func (p *StepPhrase) TriggerAtStep(step, pitch int) (*Trigger, bool) {
	if step < 0 || step >= len(p.steps) {
		return nil, false
	}
	t, ok := p.steps[step][pitch]
	return t, ok
}

// TriggerAtBeat looks up the trigger at the step containing beat
func (p *StepPhrase) TriggerAtBeat(beat float64, pitch int) (*Trigger, bool) {
	return p.TriggerAtStep(BeatToStep(beat, p.resolution), pitch)
}

// TriggersAtStep returns every trigger at step, lowest pitch first
func (p *StepPhrase) TriggersAtStep(step int) []*Trigger {
	if step < 0 || step >= len(p.steps) {
		return nil
	}
	return sortedByPitch(p.steps[step])
}

func (p *StepPhrase) TriggersAtBeat(beat float64) []*Trigger {
	return p.TriggersAtStep(BeatToStep(beat, p.resolution))
}

// Triggers returns all triggers ordered by step then pitch
func (p *StepPhrase) Triggers() []*Trigger {
	var out []*Trigger
	for _, pitches := range p.steps {
		out = append(out, sortedByPitch(pitches)...)
	}
	return out
}

func sortedByPitch(pitches map[int]*Trigger) []*Trigger {
	out := make([]*Trigger, 0, len(pitches))
	for _, t := range pitches {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pitch < out[j].Pitch })
	return out
}

// Mutations

// Clear drops every trigger, keeping resolution and length
func (p *StepPhrase) Clear() {
	p.steps = newStepMap(p.length * p.resolution.StepsPerMeasure())
	p.hasTriggers = false
}

// AddNote places a note by beat rather than step; gate is end - start.
// Notes starting outside the phrase are ignored.
func (p *StepPhrase) AddNote(pitch int, start, end, velocity float64, flags Flags) {
	t, ok := p.putTrigger(BeatToStep(start, p.resolution), pitch, end-start, velocity, flags)
	if !ok {
		return
	}
	p.hasTriggers = true
	t.SetSelected(true)
	p.fireTriggerDataChange(t, ChangeReset)
}

// RemoveNote deletes the note at the step containing start, if there is one
func (p *StepPhrase) RemoveNote(pitch int, start float64) {
	step := BeatToStep(start, p.resolution)
	t, ok := p.TriggerAtStep(step, pitch)
	if !ok {
		return
	}
	t.SetSelected(false)
	delete(p.steps[step], pitch)
	p.fireTriggerDataChange(t, ChangeReset)
}

// TriggerOn switches on the trigger at (step, pitch), creating it or
// overwriting the data of the one already there. Steps outside the phrase
// are ignored.
func (p *StepPhrase) TriggerOn(step, pitch int, gate, velocity float64, flags Flags) {
	t, ok := p.putTrigger(step, pitch, gate, velocity, flags)
	if !ok {
		return
	}
	p.hasTriggers = true
	t.SetSelected(true)
	p.fireTriggerDataChange(t, ChangeReset)
}

// TriggerOff switches off the trigger at (step, pitch). Polyphonic phrases
// delete it; monophonic phrases keep it deselected so a later TriggerOn at
// the same slot reuses it.
func (p *StepPhrase) TriggerOff(step, pitch int, polyphonic bool) {
	t, ok := p.TriggerAtStep(step, pitch)
	if !ok {
		return
	}
	t.SetSelected(false)
	if polyphonic {
		delete(p.steps[step], pitch)
	}
	p.fireTriggerDataChange(t, ChangeReset)
}

// putTrigger returns the trigger at (step, pitch) with its data replaced,
// allocating it if the slot is empty.
func (p *StepPhrase) putTrigger(step, pitch int, gate, velocity float64, flags Flags) (*Trigger, bool) {
	if checkStep(step, len(p.steps)) != nil {
		return nil, false
	}
	t, ok := p.steps[step][pitch]
	if !ok {
		t = &Trigger{Step: step, Pitch: pitch}
		p.steps[step][pitch] = t
	}
	t.Gate = SnapGate(gate)
	t.Velocity = velocity
	t.Flags = flags
	return t, true
}

// SetResolution regrids the phrase; same or unknown resolutions are ignored.
func (p *StepPhrase) SetResolution(r Resolution) {
	_ = p.ChangeResolution(r)
}

// ChangeResolution is SetResolution that reports invalid input.
func (p *StepPhrase) ChangeResolution(r Resolution) error {
	if err := checkResolution(r); err != nil {
		return err
	}
	if r == p.resolution {
		return nil
	}
	old := p.resolution
	p.resolution = r
	if r.Finer(old) {
		p.steps = expandResolution(p.steps, old, r, p.length)
	} else {
		p.steps = contractResolution(p.steps, old, r, p.length)
	}
	p.fireResolutionChange(r)
	return nil
}

// SetLength changes the length in measures; same or invalid lengths are ignored.
func (p *StepPhrase) SetLength(n int) {
	_ = p.ChangeLength(n)
}

// ChangeLength is SetLength that reports invalid input.
func (p *StepPhrase) ChangeLength(n int) error {
	if err := checkLength(n); err != nil {
		return err
	}
	if n == p.length {
		return nil
	}
	p.length = n
	p.steps = updateLength(p.steps, n*p.resolution.StepsPerMeasure())
	p.fireLengthChange(n)
	return nil
}

// SetPosition moves the playback cursor. The value is not clamped.
func (p *StepPhrase) SetPosition(n int) {
	if n == p.position {
		return
	}
	p.position = n
	p.firePositionChange(n)
}

func (p *StepPhrase) fireLengthChange(n int) {
	p.listeners.each(func(l Listener) { l.OnLengthChange(p, n) })
}

func (p *StepPhrase) firePositionChange(n int) {
	p.listeners.each(func(l Listener) { l.OnPositionChange(p, n) })
}

func (p *StepPhrase) fireResolutionChange(r Resolution) {
	p.listeners.each(func(l Listener) { l.OnResolutionChange(p, r) })
}

func (p *StepPhrase) fireTriggerDataChange(t *Trigger, kind ChangeKind) {
	p.listeners.each(func(l Listener) { l.OnTriggerDataChange(t, kind) })
}
