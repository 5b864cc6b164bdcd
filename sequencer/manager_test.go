package sequencer

import (
	"sync"
	"testing"
	"time"

	"go-phrase/midi"
)

type recordingOutput struct {
	mu     sync.Mutex
	events []midi.Event
}

func (o *recordingOutput) Send(e midi.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
	return nil
}

func (o *recordingOutput) take() []midi.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.events
	o.events = nil
	return out
}

func newTestManager() (*Manager, *recordingOutput) {
	out := &recordingOutput{}
	return NewManager(NewState(DefaultDefaults), out), out
}

func TestTickTimeConversion(t *testing.T) {
	s := NewState(DefaultDefaults)
	s.T0 = time.Unix(1000, 0)
	// 120 BPM is 192 ticks per second
	if got := s.TimeToTick(s.T0.Add(time.Second)); got != 192 {
		t.Errorf("TimeToTick = %d", got)
	}
	if got := s.TickToTime(96); !got.Equal(s.T0.Add(500 * time.Millisecond)) {
		t.Errorf("TickToTime = %v", got)
	}
	if got := s.TimeToTick(s.T0.Add(-time.Second)); got != 0 {
		t.Errorf("before T0 = %d", got)
	}
}

func TestAudible(t *testing.T) {
	s := NewState(DefaultDefaults)
	s.Tracks[1].Muted = true
	if !s.audible(0) || s.audible(1) {
		t.Error("mute")
	}
	s.Tracks[2].Solo = true
	if s.audible(0) || !s.audible(2) {
		t.Error("solo")
	}
	s.Tracks[2].Muted = true
	if s.audible(2) {
		t.Error("mute wins over solo")
	}
}

func TestAdvanceDispatchesOnTrackChannels(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.25, 1, 0)
	m.Device(3).Phrase(0).TriggerOn(1, 67, 0.25, 1, 0)

	m.Play()
	m.Advance(TicksPerMeasure)

	got := out.take()
	if len(got) != 4 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Channel != 0 || got[0].Note != 60 || got[0].Type != midi.NoteOn {
		t.Errorf("first event %+v", got[0])
	}
	// the release of 60 goes ahead of the new note at tick 24
	if got[1].Type != midi.NoteOff || got[1].Note != 60 {
		t.Errorf("second event %+v", got[1])
	}
	// track 4 plays on channel 4
	if got[2].Channel != 3 || got[2].Note != 67 || got[2].Tick != 24 {
		t.Errorf("third event %+v", got[2])
	}
	if tick, playing, _ := m.GetState(); tick != TicksPerMeasure || !playing {
		t.Errorf("tick %d playing %v", tick, playing)
	}
}

func TestAdvanceWhileStoppedDoesNothing(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.25, 1, 0)
	m.Advance(TicksPerMeasure)
	if got := out.take(); len(got) != 0 {
		t.Errorf("sent %+v while stopped", got)
	}
}

func TestAdvanceMovesPositions(t *testing.T) {
	m, _ := newTestManager()
	m.Play()
	m.Advance(5 * 24)
	if pos := m.Device(0).Phrase(0).Position(); pos != 4 {
		t.Errorf("position %d, want 4", pos)
	}
	m.Advance(1)
	if pos := m.Device(0).Phrase(0).Position(); pos != 5 {
		t.Errorf("position %d, want 5", pos)
	}
}

func TestMutedTrackStillSendsNoteOffs(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.5, 1, 0)

	m.Play()
	m.Advance(1)
	m.ToggleMute(0)
	m.Advance(TicksPerMeasure - 1)

	got := out.take()
	if len(got) != 2 || got[0].Type != midi.NoteOn || got[1].Type != midi.NoteOff {
		t.Errorf("got %+v", got)
	}
}

func TestSoloSilencesOtherTracks(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.25, 1, 0)
	m.Device(1).Phrase(0).TriggerOn(0, 62, 0.25, 1, 0)
	m.ToggleSolo(1)

	m.Play()
	m.Advance(TicksPerMeasure)
	for _, e := range out.take() {
		if e.Type == midi.NoteOn && e.Note != 62 {
			t.Errorf("unsoloed track played %+v", e)
		}
	}
}

func TestStopReleasesSoundingNotes(t *testing.T) {
	m, out := newTestManager()
	m.Device(2).Phrase(0).TriggerOn(0, 50, 4, 1, 0)

	m.Play()
	m.Advance(10)
	out.take()
	m.Stop()

	got := out.take()
	if len(got) != 1 || got[0].Type != midi.NoteOff || got[0].Note != 50 || got[0].Channel != 2 {
		t.Errorf("stop sent %+v", got)
	}
	if _, playing, _ := m.GetState(); playing {
		t.Error("still playing")
	}
}

func TestPlayRestartsFromTop(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.25, 1, 0)
	m.Play()
	m.Advance(100)
	m.Stop()
	out.take()

	m.Play()
	m.Advance(1)
	got := out.take()
	if len(got) != 1 || got[0].Tick != 0 {
		t.Errorf("restart sent %+v", got)
	}
}

func TestSetTempoClamps(t *testing.T) {
	m, _ := newTestManager()
	for _, tc := range []struct{ in, want int }{
		{90, 90},
		{5, MinTempo},
		{1000, MaxTempo},
	} {
		m.SetTempo(tc.in)
		if _, _, tempo := m.GetState(); tempo != tc.want {
			t.Errorf("SetTempo(%d) = %d, want %d", tc.in, tempo, tc.want)
		}
	}
}

func TestSetTempoWhilePlayingKeepsTick(t *testing.T) {
	m, _ := newTestManager()
	m.Play()
	m.mu.Lock()
	m.S.T0 = time.Now().Add(-time.Second)
	m.mu.Unlock()

	m.SetTempo(60)
	m.mu.RLock()
	tick := m.S.TimeToTick(time.Now())
	m.mu.RUnlock()
	// one second at 120 BPM, give or take scheduling
	if tick < 180 || tick > 220 {
		t.Errorf("tick after tempo change = %d", tick)
	}
}

func TestQueuePatternThroughManager(t *testing.T) {
	m, out := newTestManager()
	m.Device(0).Phrase(0).TriggerOn(0, 60, 0.25, 1, 0)
	m.Device(0).Phrase(1).TriggerOn(0, 61, 0.25, 1, 0)

	m.Play()
	m.Advance(24)
	m.QueuePattern(0, 1)
	m.Advance(2*TicksPerMeasure - 24)

	var notes []uint8
	for _, e := range out.take() {
		if e.Type == midi.NoteOn {
			notes = append(notes, e.Note)
		}
	}
	if len(notes) != 2 || notes[1] != 61 {
		t.Errorf("notes %v", notes)
	}
}

func TestEditNotifiesUpdate(t *testing.T) {
	m, _ := newTestManager()
	select {
	case <-m.UpdateChan:
	default:
	}

	m.Device(5).Phrase(9).TriggerOn(0, 60, 0.25, 1, 0)
	select {
	case <-m.UpdateChan:
	default:
		t.Error("trigger change did not notify")
	}
}

func TestFocusAndEdit(t *testing.T) {
	m, _ := newTestManager()
	m.FocusTrack(4)
	m.FocusTrack(99)
	idx, d := m.Focused()
	if idx != 4 || d != m.Device(4) {
		t.Fatalf("focused %d", idx)
	}
	m.Edit(func(d *PhraseDevice) { d.ToggleStep() })
	if !m.Device(4).Phrase(0).HasTriggers() {
		t.Error("edit did not reach focused track")
	}
}

func TestHandleNoteEchoesOnFocusedChannel(t *testing.T) {
	m, out := newTestManager()
	m.FocusTrack(2)
	m.Device(2).ToggleRecording()

	m.HandleNote(64, 100)
	m.HandleNote(64, 0)

	got := out.take()
	if len(got) != 2 || got[0].Channel != 2 || got[1].Type != midi.NoteOff {
		t.Errorf("echo %+v", got)
	}
	if _, ok := m.Device(2).Phrase(0).TriggerAtStep(0, 64); !ok {
		t.Error("note not recorded")
	}
}

func TestReplaceStateDropsOldListeners(t *testing.T) {
	m, _ := newTestManager()
	old := m.Device(0).Phrase(0)

	m.ReplaceState(NewState(DefaultDefaults))
	select {
	case <-m.UpdateChan:
	default:
	}

	old.TriggerOn(0, 60, 0.25, 1, 0)
	select {
	case <-m.UpdateChan:
		t.Error("old phrase still wired to the manager")
	default:
	}
	if m.Device(0).Phrase(0) == old {
		t.Error("device not rebuilt")
	}
}
