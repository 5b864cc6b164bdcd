package midi

import "sort"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a MIDI event scheduled by the sequencer
type Event struct {
	Tick     int64 // absolute tick since play started
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15, filled in by the manager from the track
	Note     uint8
	Velocity uint8
}

// Before orders events by tick, with note offs ahead of note ons on the
// same tick so a retriggered pitch is released before it sounds again.
func (e Event) Before(o Event) bool {
	if e.Tick != o.Tick {
		return e.Tick < o.Tick
	}
	return e.Type == NoteOff && o.Type != NoteOff
}

// SortEvents sorts in place by Before, keeping generation order for ties
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})
}

// Velocity converts a normalized 0-1 velocity to MIDI, keeping sounding
// notes at least 1 since velocity 0 means note off.
func Velocity(v float64) uint8 {
	n := int(v*127 + 0.5)
	if n < 1 {
		return 1
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// Note clamps a pitch to the MIDI range. ok is false when it had to clamp.
func Note(pitch int) (uint8, bool) {
	switch {
	case pitch < 0:
		return 0, false
	case pitch > 127:
		return 127, false
	}
	return uint8(pitch), true
}
