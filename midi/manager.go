package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-phrase/debug"
)

// DeviceEvent is emitted when keyboards connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of MIDI keyboards
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	wanted map[string]int // port name fragment -> channel, empty = every input
}

// NewDeviceManager watches in ports whose names contain one of the wanted
// fragments (case insensitive) and opens each with that fragment's channel
// (1-16, 0 = omni). With nothing wanted every input except the system
// through port is opened omni.
func NewDeviceManager(wanted map[string]int) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		wanted:      wanted,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// CoreMIDI can hang, so enumerate with a timeout
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return
	}

	byName := make(map[string]drivers.In, len(inPorts))
	names := make([]string, 0, len(inPorts))
	for _, p := range inPorts {
		byName[p.String()] = p
		names = append(names, p.String())
	}

	dm.sync(names, func(name string, channel int) (Controller, error) {
		return NewKeyboardController(name, byName[name], channel)
	})
}

// sync opens newly seen matching ports and closes the ones that vanished
func (dm *DeviceManager) sync(names []string, open func(name string, channel int) (Controller, error)) {
	seen := make(map[string]bool)

	for _, name := range names {
		channel, ok := dm.matches(name)
		if !ok {
			continue
		}
		seen[name] = true

		dm.mu.RLock()
		_, exists := dm.controllers[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := open(name, channel)
		if err != nil {
			debug.Log("midi", "open %s: %v", name, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[name] = c
		dm.mu.Unlock()

		debug.Log("midi", "connected %s ch %d", name, channel)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: name}
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()
	for id, c := range dm.controllers {
		if seen[id] {
			continue
		}
		c.Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

// matches reports whether name is wanted and the channel to open it on.
// The longest matching fragment wins.
func (dm *DeviceManager) matches(name string) (int, bool) {
	lower := strings.ToLower(name)
	if len(dm.wanted) == 0 {
		return 0, !strings.Contains(lower, "through")
	}
	best, channel := "", 0
	for w, ch := range dm.wanted {
		w = strings.ToLower(w)
		if strings.Contains(lower, w) && len(w) > len(best) {
			best, channel = w, ch
		}
	}
	return channel, best != ""
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
