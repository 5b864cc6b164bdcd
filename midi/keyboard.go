package midi

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController handles a standard MIDI keyboard
type KeyboardController struct {
	id       string
	channel  int // 1-16, 0 = omni
	stopFunc func()

	noteChan chan NoteEvent
}

// NewKeyboardController listens on inPort. channel filters input (1-16), 0 takes all.
func NewKeyboardController(id string, inPort drivers.In, channel int) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		channel:  channel,
		noteChan: make(chan NoteEvent, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.handle(msg)
		})
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// handle forwards note on/off, dropping when the consumer falls behind
func (kb *KeyboardController) handle(msg gomidi.Message) {
	var ch, note, vel uint8
	var ev NoteEvent
	switch {
	case msg.GetNoteStart(&ch, &note, &vel):
		ev = NoteEvent{Note: note, Velocity: vel, Channel: ch}
	case msg.GetNoteEnd(&ch, &note):
		ev = NoteEvent{Note: note, Channel: ch}
	default:
		return
	}
	if kb.channel > 0 && int(ch)+1 != kb.channel {
		return
	}
	select {
	case kb.noteChan <- ev:
	default:
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.noteChan)
	return nil
}
