package sequencer

import (
	"runtime"
	"sync"
	"time"

	"go-phrase/debug"
	"go-phrase/midi"
	"go-phrase/phrase"
)

// Look-ahead for queue filling (in ticks) - about 250ms at 120 BPM
const lookAheadTicks = PPQ / 2

// Manager orchestrates playback of the eight phrase tracks
type Manager struct {
	S       *State
	devices [NumTracks]*PhraseDevice
	subs    [NumTracks][NumPatterns]phrase.Subscription

	out   midi.Output
	outMu sync.Mutex

	runtimeStarted bool
	stopChan       chan struct{}
	interruptChan  chan struct{} // signal dispatch loop to recalculate (queue changed)
	mu             sync.RWMutex

	focused int // which track gets UI/input

	midiInputChan chan midi.NoteEvent

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager over s, sending to out (nil discards)
func NewManager(s *State, out midi.Output) *Manager {
	if out == nil {
		out = midi.Discard{}
	}
	m := &Manager{
		S:             s,
		out:           out,
		stopChan:      make(chan struct{}),
		interruptChan: make(chan struct{}, 1),
		midiInputChan: make(chan midi.NoteEvent, 32),
		UpdateChan:    make(chan struct{}, 1),
	}
	m.recreateDevicesFromState()
	return m
}

// recreateDevicesFromState rebuilds all devices from the current state
func (m *Manager) recreateDevicesFromState() {
	for i := 0; i < NumTracks; i++ {
		if old := m.devices[i]; old != nil {
			m.detach(i, old)
		}
		d := NewPhraseDevice(m.S.Tracks[i].Phrases)
		d.SetOnQueueChange(m.interrupt)
		m.devices[i] = d
		m.attach(i)
	}
}

// attach subscribes to every phrase of a track for logging and UI refresh
func (m *Manager) attach(track int) {
	for slot, p := range m.S.Tracks[track].Phrases.Phrases {
		m.subs[track][slot] = p.Subscribe(m.phraseListener(track))
	}
}

func (m *Manager) detach(track int, d *PhraseDevice) {
	for slot, p := range d.state.Phrases {
		p.Unsubscribe(m.subs[track][slot])
	}
}

func (m *Manager) phraseListener(track int) phrase.Listener {
	return phrase.ListenerFuncs{
		Length: func(p *phrase.StepPhrase, length int) {
			debug.Log("phrase", "track=%d %s length=%d", track+1, p.ID(), length)
			m.notifyUpdate()
		},
		Position: func(p *phrase.StepPhrase, position int) {
			debug.LogEvery(64, "phrase", "track=%d %s position=%d", track+1, p.ID(), position)
		},
		Resolution: func(p *phrase.StepPhrase, r phrase.Resolution) {
			debug.Log("phrase", "track=%d %s resolution=%s", track+1, p.ID(), r.Label())
			m.notifyUpdate()
		},
		TriggerData: func(t *phrase.Trigger, kind phrase.ChangeKind) {
			debug.Log("phrase", "track=%d %v %s", track+1, t, kind)
			m.notifyUpdate()
		},
	}
}

// StartRuntime starts the clock goroutines (called once at startup)
func (m *Manager) StartRuntime() {
	if m.runtimeStarted {
		return
	}
	m.runtimeStarted = true
	go m.midiInputLoop()
	go m.queueManagerLoop()
	go m.midiOutputLoop()
}

// Shutdown stops playback and the runtime goroutines
func (m *Manager) Shutdown() {
	m.Stop()
	if m.runtimeStarted {
		close(m.stopChan)
		m.runtimeStarted = false
	}
}

// ReplaceState swaps in a loaded project, stopping playback first
func (m *Manager) ReplaceState(s *State) {
	m.Stop()
	m.mu.Lock()
	m.S = s
	if m.focused >= NumTracks {
		m.focused = 0
	}
	m.recreateDevicesFromState()
	m.mu.Unlock()
	m.notifyUpdate()
}

// Device returns the phrase device of a track
func (m *Manager) Device(track int) *PhraseDevice {
	if track >= 0 && track < NumTracks {
		return m.devices[track]
	}
	return nil
}

// Focused returns the focused track index and its device
func (m *Manager) Focused() (int, *PhraseDevice) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focused, m.devices[m.focused]
}

// FocusTrack focuses a track by index
func (m *Manager) FocusTrack(idx int) {
	if idx < 0 || idx >= NumTracks {
		return
	}
	m.mu.Lock()
	m.focused = idx
	m.mu.Unlock()
	m.notifyUpdate()
}

// Edit runs fn against the focused device and refreshes the UI
func (m *Manager) Edit(fn func(d *PhraseDevice)) {
	_, d := m.Focused()
	fn(d)
	m.notifyUpdate()
}

// Play starts playback from tick 0
func (m *Manager) Play() {
	m.mu.Lock()
	if m.S.Playing {
		m.mu.Unlock()
		return
	}
	m.S.Playing = true
	m.S.T0 = time.Now()
	m.S.Tick = 0
	for _, d := range m.devices {
		d.ClearQueue()
	}
	m.mu.Unlock()

	debug.Log("transport", "play tempo=%d", m.S.Tempo)
	m.interrupt()
	m.notifyUpdate()
}

// Stop stops playback and releases sounding notes
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.S.Playing {
		m.mu.Unlock()
		return
	}
	m.S.Playing = false
	var offs [NumTracks][]midi.Event
	for i, d := range m.devices {
		offs[i] = d.ClearQueue()
	}
	m.mu.Unlock()

	for i := range offs {
		for _, e := range offs[i] {
			m.send(i, e)
		}
	}
	debug.Log("transport", "stop")
	m.notifyUpdate()
}

// interrupt signals the dispatch loop to recalculate (called when queues change)
func (m *Manager) interrupt() {
	select {
	case m.interruptChan <- struct{}{}:
	default:
	}
}

// SetTempo sets the BPM, clamped to 20-300. The playhead keeps its tick.
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bpm < MinTempo {
		bpm = MinTempo
	}
	if bpm > MaxTempo {
		bpm = MaxTempo
	}
	if m.S.Playing {
		now := time.Now()
		tick := m.S.TimeToTick(now)
		m.S.Tempo = bpm
		m.S.T0 = now.Add(-time.Duration(float64(tick) / m.S.ticksPerSecond() * float64(time.Second)))
		return
	}
	m.S.Tempo = bpm
}

// GetState returns the transport state
func (m *Manager) GetState() (tick int64, playing bool, tempo int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.S.Tick, m.S.Playing, m.S.Tempo
}

// ProjectName is the library folder the state was loaded from or saved to
func (m *Manager) ProjectName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.S.ProjectName
}

// SetProjectName changes where the next SaveProject goes
func (m *Manager) SetProjectName(name string) {
	m.mu.Lock()
	m.S.ProjectName = name
	m.mu.Unlock()
	m.notifyUpdate()
}

// TrackStatus returns a track's output channel and mute/solo switches
func (m *Manager) TrackStatus(track int) (channel uint8, muted, solo bool) {
	if track < 0 || track >= NumTracks {
		return 0, false, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts := m.S.Tracks[track]
	return ts.Channel, ts.Muted, ts.Solo
}

// QueuePattern queues a slot on a track, switched when its phrase wraps
func (m *Manager) QueuePattern(track, slot int) {
	d := m.Device(track)
	if d == nil {
		return
	}
	m.mu.RLock()
	tick := m.S.Tick
	m.mu.RUnlock()
	d.QueuePattern(slot, tick)
	m.notifyUpdate()
}

// ToggleMute mutes or unmutes a track
func (m *Manager) ToggleMute(track int) {
	if track < 0 || track >= NumTracks {
		return
	}
	m.mu.Lock()
	m.S.Tracks[track].Muted = !m.S.Tracks[track].Muted
	m.mu.Unlock()
	m.notifyUpdate()
}

// ToggleSolo solos or unsolos a track
func (m *Manager) ToggleSolo(track int) {
	if track < 0 || track >= NumTracks {
		return
	}
	m.mu.Lock()
	m.S.Tracks[track].Solo = !m.S.Tracks[track].Solo
	m.mu.Unlock()
	m.notifyUpdate()
}

// Advance runs the sequencer forward by ticks without the wall clock. It
// fills, dispatches every event before the new playhead and moves phrase
// positions. Used by tests and offline rendering.
func (m *Manager) Advance(ticks int64) {
	m.mu.Lock()
	if !m.S.Playing {
		m.mu.Unlock()
		return
	}
	target := m.S.Tick + ticks
	m.mu.Unlock()

	for _, d := range m.devices {
		d.FillUntil(target)
	}
	for {
		idx, e := m.nextEvent()
		if e == nil || e.Tick >= target {
			break
		}
		m.popAndSend(idx)
	}

	m.mu.Lock()
	m.S.Tick = target
	m.mu.Unlock()
	for _, d := range m.devices {
		d.UpdatePlayhead(target)
	}
}

// nextEvent finds the earliest queued event across all tracks
func (m *Manager) nextEvent() (int, *midi.Event) {
	var next *midi.Event
	idx := -1
	for i, d := range m.devices {
		e := d.PeekNextEvent()
		if e != nil && (next == nil || e.Before(*next)) {
			next = e
			idx = i
		}
	}
	return idx, next
}

func (m *Manager) popAndSend(idx int) {
	e := m.devices[idx].PopNextEvent()
	if e == nil {
		return
	}
	m.mu.RLock()
	audible := m.S.audible(idx)
	m.mu.RUnlock()
	// note offs always go out so muting never leaves notes hanging
	if audible || e.Type == midi.NoteOff {
		m.send(idx, *e)
	}
}

// send stamps the track's channel and writes to the output
func (m *Manager) send(track int, e midi.Event) {
	m.mu.RLock()
	e.Channel = m.S.Tracks[track].Channel - 1
	m.mu.RUnlock()

	m.outMu.Lock()
	err := m.out.Send(e)
	m.outMu.Unlock()
	if err != nil {
		debug.LogEvery(100, "dispatch", "send: %v", err)
		return
	}
	debug.Log("dispatch", "track=%d ch=%d tick=%d type=%#x note=%d vel=%d", track+1, e.Channel+1, e.Tick, e.Type, e.Note, e.Velocity)
}

// fillQueues fills all device queues up to the look-ahead horizon
func (m *Manager) fillQueues() {
	m.mu.RLock()
	if !m.S.Playing {
		m.mu.RUnlock()
		return
	}
	target := m.S.TimeToTick(time.Now()) + lookAheadTicks
	m.mu.RUnlock()

	for _, d := range m.devices {
		d.FillUntil(target)
	}
}

// queueManagerLoop keeps device queues filled ahead of the playhead and
// refreshes the UI at 30 FPS
func (m *Manager) queueManagerLoop() {
	ticker := time.NewTicker(time.Millisecond * 50)
	uiTicker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	defer uiTicker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-m.interruptChan:
			m.fillQueues()
		case <-ticker.C:
			m.fillQueues()
		case <-uiTicker.C:
			m.mu.Lock()
			playing := m.S.Playing
			if playing {
				m.S.Tick = m.S.TimeToTick(time.Now())
			}
			tick := m.S.Tick
			m.mu.Unlock()
			if !playing {
				continue
			}
			for _, d := range m.devices {
				d.UpdatePlayhead(tick)
			}
			m.notifyUpdate()
		}
	}
}

// midiOutputLoop waits for the earliest queued event and sends it on time
func (m *Manager) midiOutputLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-m.stopChan:
			return
		default:
		}

		m.mu.RLock()
		playing := m.S.Playing
		m.mu.RUnlock()
		if !playing {
			time.Sleep(time.Millisecond)
			continue
		}

		idx, next := m.nextEvent()
		if next == nil {
			time.Sleep(time.Millisecond)
			continue
		}

		m.mu.RLock()
		eventTime := m.S.TickToTime(next.Tick)
		m.mu.RUnlock()

		if wait := time.Until(eventTime); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-m.stopChan:
				timer.Stop()
				return
			case <-m.interruptChan:
				// queue changed, look again
				timer.Stop()
				m.fillQueues()
				continue
			case <-timer.C:
			}
		}

		m.popAndSend(idx)
	}
}

// midiInputLoop consumes keyboard input and routes it to the focused track
func (m *Manager) midiInputLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case evt := <-m.midiInputChan:
			m.HandleNote(evt.Note, evt.Velocity)
		}
	}
}

// SetMIDIInput forwards a keyboard's notes until its channel closes
func (m *Manager) SetMIDIInput(ctrl midi.Controller) {
	if ctrl == nil {
		return
	}
	go func() {
		for evt := range ctrl.NoteEvents() {
			select {
			case m.midiInputChan <- evt:
			default:
				// drop if the input loop is behind
			}
		}
	}()
}

// HandleNote handles live MIDI input: echo immediately, then record
func (m *Manager) HandleNote(note uint8, velocity uint8) {
	eventType := midi.NoteOn
	if velocity == 0 {
		eventType = midi.NoteOff
	}

	m.mu.RLock()
	tick := m.S.Tick
	if m.S.Playing {
		tick = m.S.TimeToTick(time.Now())
	}
	track := m.focused
	m.mu.RUnlock()

	ev := midi.Event{Tick: tick, Type: eventType, Note: note, Velocity: velocity}
	m.send(track, ev)
	m.devices[track].HandleMIDI(ev)
	m.notifyUpdate()
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
