package phrase

import (
	"fmt"
	"math"
)

// Flags is a bitmask of per-note playing options
type Flags int

const (
	FlagSlide  Flags = 1 << 0
	FlagAccent Flags = 1 << 1
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// gateScale is the number of gate steps per beat. Gates are kept on this
// grid so an end beat written as start+gate decodes to the same gate.
const gateScale = 1e9

// SnapGate rounds a gate in beats onto the 1e-9 beat grid
func SnapGate(gate float64) float64 {
	return math.Round(gate*gateScale) / gateScale
}

// ChangeKind says what happened to a trigger. Only ChangeReset is emitted
// today; new kinds get appended, so switch statements need a default case.
type ChangeKind int

const (
	ChangeReset ChangeKind = iota
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Trigger is one note anchored to a (step, pitch) slot of a StepPhrase.
// Gate and Velocity are stored as given, callers own the ranges.
type Trigger struct {
	Step     int
	Pitch    int
	Gate     float64 // beats
	Velocity float64 // 0.0 - 1.0
	Flags    Flags

	selected bool
}

// Selected reports whether the trigger is switched on
func (t *Trigger) Selected() bool {
	return t.selected
}

func (t *Trigger) SetSelected(v bool) {
	t.selected = v
}

// Beat returns where the trigger starts at resolution r
func (t *Trigger) Beat(r Resolution) float64 {
	return StepToBeat(t.Step, r)
}

func (t *Trigger) String() string {
	state := "off"
	if t.selected {
		state = "on"
	}
	return fmt.Sprintf("step=%d pitch=%d gate=%g vel=%g flags=%d %s", t.Step, t.Pitch, t.Gate, t.Velocity, t.Flags, state)
}
