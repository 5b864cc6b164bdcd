package midi

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Output receives events as they are dispatched
type Output interface {
	Send(e Event) error
}

// PortOutput sends to a hardware or virtual MIDI out port
type PortOutput struct {
	name string
	mu   sync.Mutex
	send func(gomidi.Message) error
}

// OutPorts lists the names of the available out ports
func OutPorts() []string {
	var names []string
	for _, p := range gomidi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}

// InPorts lists the names of the available in ports
func InPorts() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// OpenOutput opens the out port whose name matches exactly, falling back to
// the first port that contains name (case insensitive).
func OpenOutput(name string) (*PortOutput, error) {
	ports := gomidi.GetOutPorts()
	idx := -1
	for i, p := range ports {
		if p.String() == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		lower := strings.ToLower(name)
		for i, p := range ports {
			if strings.Contains(strings.ToLower(p.String()), lower) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("no MIDI out port matching %q", name)
	}

	send, err := gomidi.SendTo(ports[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", ports[idx].String())
	}
	return &PortOutput{name: ports[idx].String(), send: send}, nil
}

// Name is the opened port's full name
func (o *PortOutput) Name() string {
	return o.name
}

// Send implements Output
func (o *PortOutput) Send(e Event) error {
	msg, ok := Message(e)
	if !ok {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(msg)
}

// Message converts an event to its wire form
func Message(e Event) (gomidi.Message, bool) {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity), true
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note), true
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity), true
	}
	return nil, false
}

// Discard drops everything. Used when no port is configured.
type Discard struct{}

func (Discard) Send(Event) error { return nil }
