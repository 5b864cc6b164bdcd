package sequencer

import (
	"go-phrase/midi"
)

// Device is a track's event source
type Device interface {
	// Queue-based playback
	// Devices maintain their own event queue. Manager calls FillUntil to ensure
	// the queue has events up to a certain tick, then peeks/pops to dispatch.
	FillUntil(tick int64)       // Fill queue with events up to tick
	PeekNextEvent() *midi.Event // Get next event without removing (nil if empty)
	PopNextEvent() *midi.Event  // Remove and return next event (nil if empty)
	ClearQueue() []midi.Event   // Clear the queue, returning pending note offs
	UpdatePlayhead(tick int64)  // Move position markers up to the sounding tick

	// Pattern control, switched at the end of the playing phrase
	QueuePattern(p int, atTick int64)
	CurrentPattern() int
	NextPattern() int // -1 if none
	ContentMask() []bool

	// Live input
	HandleMIDI(event midi.Event)

	// Recording control
	ToggleRecording()
	IsRecording() bool
}

var _ Device = (*PhraseDevice)(nil)
