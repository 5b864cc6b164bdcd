package sequencer

import (
	"sync"

	"go-phrase/debug"
	"go-phrase/midi"
	"go-phrase/phrase"
)

const (
	defaultVelocity = 0.8
	accentBoost     = 1.25
)

// mark records which step of which slot starts at a tick
type mark struct {
	tick    int64
	pattern int
	step    int
}

type pendingNote struct {
	pattern  int
	step     int
	tick     int64
	velocity uint8
}

// PhraseDevice plays and edits the 64 phrases of one track. All access to
// its phrases goes through the device mutex.
type PhraseDevice struct {
	mu    sync.Mutex
	state *PhraseState

	queue           []midi.Event // sorted by midi.Event.Before
	queuedUntilTick int64        // start tick of the next step to generate
	playStep        int          // next step to generate
	running         bool

	marks    []mark
	lastMark mark

	pending       map[uint8]pendingNote
	onQueueChange func()
}

// NewPhraseDevice creates a device that operates on the given state
func NewPhraseDevice(state *PhraseState) *PhraseDevice {
	return &PhraseDevice{
		state:    state,
		lastMark: mark{pattern: state.Pattern},
		pending:  make(map[uint8]pendingNote),
	}
}

// SetOnQueueChange sets the callback for when the queue needs recalculation
func (d *PhraseDevice) SetOnQueueChange(fn func()) {
	d.onQueueChange = fn
}

func (d *PhraseDevice) notifyQueue() {
	if d.onQueueChange != nil {
		d.onQueueChange()
	}
}

// Phrase returns slot i. Callers must not touch it while playback runs;
// use Edit instead.
func (d *PhraseDevice) Phrase(i int) *phrase.StepPhrase {
	if i < 0 || i >= NumPatterns {
		return nil
	}
	return d.state.Phrases[i]
}

// Edit runs fn on the phrase being edited with the device locked
func (d *PhraseDevice) Edit(fn func(p *phrase.StepPhrase)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.state.Phrases[d.state.Editing])
	d.clampCursor()
}

// Device interface implementation - queue-based

// FillUntil generates one step at a time so edits are heard within the
// manager's look-ahead.
func (d *PhraseDevice) FillUntil(tick int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	d.running = true
	for d.queuedUntilTick < tick {
		if d.playStep == 0 && s.Next >= 0 {
			d.switchPattern(s.Next)
		}
		p := s.Phrases[s.Pattern]
		if d.playStep >= p.NumSteps() {
			// phrase shrank under the playhead
			d.playStep = 0
			continue
		}

		at := d.queuedUntilTick
		d.marks = append(d.marks, mark{tick: at, pattern: s.Pattern, step: d.playStep})
		for _, t := range p.TriggersAtStep(d.playStep) {
			if t.Selected() {
				d.emitNote(at, t)
			}
		}

		d.queuedUntilTick += TicksPerStep(p.Resolution())
		d.playStep++
		if d.playStep >= p.NumSteps() {
			d.playStep = 0
		}
	}
	midi.SortEvents(d.queue)
}

func (d *PhraseDevice) emitNote(at int64, t *phrase.Trigger) {
	note, ok := midi.Note(t.Pitch)
	if !ok {
		debug.LogEvery(16, "phrase", "pitch %d outside MIDI range, clamped", t.Pitch)
	}

	gate := BeatsToTicks(t.Gate)
	if gate < 1 {
		gate = 1
	}
	if t.Flags.Has(phrase.FlagSlide) {
		// overlap the next note for legato
		gate++
	}
	vel := t.Velocity
	if t.Flags.Has(phrase.FlagAccent) {
		vel *= accentBoost
	}

	// cut a still sounding note of the same pitch
	for i := range d.queue {
		e := &d.queue[i]
		if e.Type == midi.NoteOff && e.Note == note && e.Tick > at {
			e.Tick = at
		}
	}

	d.queue = append(d.queue,
		midi.Event{Tick: at, Type: midi.NoteOn, Note: note, Velocity: midi.Velocity(vel)},
		midi.Event{Tick: at + gate, Type: midi.NoteOff, Note: note},
	)
}

func (d *PhraseDevice) switchPattern(p int) {
	s := d.state
	if p != s.Pattern {
		s.Phrases[s.Pattern].SetActive(false)
		s.Phrases[p].SetActive(true)
		debug.Log("phrase", "switch %s -> %s", s.Phrases[s.Pattern].ID(), s.Phrases[p].ID())
	}
	s.Pattern = p
	s.Next = -1
}

// PeekNextEvent returns a copy of the next event without removing it
func (d *PhraseDevice) PeekNextEvent() *midi.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil
	}
	e := d.queue[0]
	return &e
}

// PopNextEvent removes and returns the next event
func (d *PhraseDevice) PopNextEvent() *midi.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil
	}
	e := d.queue[0]
	d.queue = d.queue[1:]
	return &e
}

// ClearQueue resets playback to the start of the playing phrase
func (d *PhraseDevice) ClearQueue() []midi.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	var offs []midi.Event
	for _, e := range d.queue {
		if e.Type == midi.NoteOff {
			offs = append(offs, e)
		}
	}
	d.queue = nil
	d.queuedUntilTick = 0
	d.playStep = 0
	d.running = false
	d.marks = nil
	d.lastMark = mark{pattern: d.state.Pattern}
	clear(d.pending)
	return offs
}

// UpdatePlayhead moves the sounding phrase's position to the step at tick
func (d *PhraseDevice) UpdatePlayhead(tick int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for n < len(d.marks) && d.marks[n].tick <= tick {
		n++
	}
	if n == 0 {
		return
	}
	d.lastMark = d.marks[n-1]
	d.marks = d.marks[n:]
	d.state.Phrases[d.lastMark.pattern].SetPosition(d.lastMark.step)
}

// QueuePattern switches immediately when stopped, otherwise when the
// playing phrase wraps.
func (d *PhraseDevice) QueuePattern(p int, atTick int64) {
	if p < 0 || p >= NumPatterns {
		return
	}
	d.mu.Lock()
	if !d.running {
		d.switchPattern(p)
		d.lastMark = mark{pattern: p}
	} else {
		d.state.Next = p
	}
	d.mu.Unlock()
	d.notifyQueue()
}

func (d *PhraseDevice) CurrentPattern() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Pattern
}

func (d *PhraseDevice) NextPattern() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Next
}

// ContentMask reports which slots have ever held a trigger since their last clear
func (d *PhraseDevice) ContentMask() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	mask := make([]bool, NumPatterns)
	for i, p := range d.state.Phrases {
		mask[i] = p.HasTriggers()
	}
	return mask
}

// HandleMIDI records live notes. While playing, notes land on the nearest
// step of the sounding phrase with the held time as gate. While stopped
// they are entered at the edit cursor, which advances once all keys are up.
func (d *PhraseDevice) HandleMIDI(ev midi.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	if !s.Recording {
		return
	}

	if ev.Type == midi.NoteOn && ev.Velocity > 0 {
		if !d.running {
			p := s.Phrases[s.Editing]
			d.record(s.Editing, s.CursorStep, int(ev.Note), p.Resolution().BeatsPerStep(), ev.Velocity)
			d.pending[ev.Note] = pendingNote{pattern: s.Editing, step: s.CursorStep}
			return
		}
		pat, step := d.stepAt(ev.Tick)
		d.pending[ev.Note] = pendingNote{pattern: pat, step: step, tick: ev.Tick, velocity: ev.Velocity}
		return
	}

	if ev.Type != midi.NoteOff && ev.Type != midi.NoteOn {
		return
	}
	pn, ok := d.pending[ev.Note]
	if !ok {
		return
	}
	delete(d.pending, ev.Note)

	if !d.running {
		if len(d.pending) == 0 {
			d.moveCursor(1, 0, true)
		}
		return
	}

	p := s.Phrases[pn.pattern]
	gate := float64(ev.Tick-pn.tick) / PPQ
	if minGate := p.Resolution().BeatsPerStep(); gate < minGate {
		gate = minGate
	}
	d.record(pn.pattern, pn.step, int(ev.Note), gate, pn.velocity)
}

// stepAt quantizes tick to the nearest step of the phrase sounding then
func (d *PhraseDevice) stepAt(tick int64) (pattern, step int) {
	m := d.lastMark
	for _, mk := range d.marks {
		if mk.tick > tick {
			break
		}
		m = mk
	}
	p := d.state.Phrases[m.pattern]
	step = m.step
	if tick-m.tick > TicksPerStep(p.Resolution())/2 {
		step = (step + 1) % p.NumSteps()
	}
	return m.pattern, step
}

func (d *PhraseDevice) record(pattern, step, pitch int, gate float64, velocity uint8) {
	p := d.state.Phrases[pattern]
	if !d.state.Polyphonic {
		d.monophonicClear(p, step, pitch)
	}
	p.TriggerOn(step, pitch, gate, float64(velocity)/127, 0)
	debug.Log("record", "%s step=%d pitch=%d gate=%g", p.ID(), step, pitch, gate)
}

// monophonicClear switches off every other pitch at step
func (d *PhraseDevice) monophonicClear(p *phrase.StepPhrase, step, keep int) {
	for _, t := range p.TriggersAtStep(step) {
		if t.Pitch != keep && t.Selected() {
			p.TriggerOff(step, t.Pitch, false)
		}
	}
}

func (d *PhraseDevice) ToggleRecording() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Recording = !d.state.Recording
	clear(d.pending)
}

func (d *PhraseDevice) IsRecording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Recording
}
