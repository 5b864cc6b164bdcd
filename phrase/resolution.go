package phrase

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// BeatsPerMeasure is fixed at 4/4
const BeatsPerMeasure = 4

// Resolution is the quantization grid of a phrase.
// Lower values are finer grids: SixtyFourth < ThirtySecond < ... < Whole.
type Resolution int

const (
	SixtyFourth Resolution = iota
	ThirtySecondTriplet
	ThirtySecond
	SixteenthTriplet
	Sixteenth
	EighthTriplet
	Eighth
	QuarterTriplet
	Quarter
	HalfTriplet
	Half
	Whole
)

// DefaultResolution is what new phrases start with
const DefaultResolution = Sixteenth

var resolutionTable = [...]struct {
	name            string
	label           string
	stepsPerMeasure int
}{
	SixtyFourth:         {"sixtyfourth", "1/64", 64},
	ThirtySecondTriplet: {"thirtysecond-triplet", "1/32T", 48},
	ThirtySecond:        {"thirtysecond", "1/32", 32},
	SixteenthTriplet:    {"sixteenth-triplet", "1/16T", 24},
	Sixteenth:           {"sixteenth", "1/16", 16},
	EighthTriplet:       {"eighth-triplet", "1/8T", 12},
	Eighth:              {"eighth", "1/8", 8},
	QuarterTriplet:      {"quarter-triplet", "1/4T", 6},
	Quarter:             {"quarter", "1/4", 4},
	HalfTriplet:         {"half-triplet", "1/2T", 3},
	Half:                {"half", "1/2", 2},
	Whole:               {"whole", "1", 1},
}

// Resolutions lists every resolution from finest to coarsest
func Resolutions() []Resolution {
	out := make([]Resolution, len(resolutionTable))
	for i := range out {
		out[i] = Resolution(i)
	}
	return out
}

// Valid reports whether r is one of the enumerated resolutions
func (r Resolution) Valid() bool {
	return r >= SixtyFourth && r <= Whole
}

// Finer reports whether r has a smaller step than other.
func (r Resolution) Finer(other Resolution) bool {
	return r < other
}

// StepsPerMeasure returns how many steps fit in one 4/4 measure.
// Invalid resolutions fall back to the default grid.
func (r Resolution) StepsPerMeasure() int {
	if !r.Valid() {
		r = DefaultResolution
	}
	return resolutionTable[r].stepsPerMeasure
}

// BeatsPerStep is the length of one step in quarter-note beats
func (r Resolution) BeatsPerStep() float64 {
	return float64(BeatsPerMeasure) / float64(r.StepsPerMeasure())
}

// Value is the step length as a fraction of a whole note (1/16 for Sixteenth).
func (r Resolution) Value() float64 {
	return 1 / float64(r.StepsPerMeasure())
}

// Label is the short display form ("1/16", "1/8T")
func (r Resolution) Label() string {
	if !r.Valid() {
		return "?"
	}
	return resolutionTable[r].label
}

func (r Resolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
	return resolutionTable[r].name
}

// ParseResolution accepts either the name ("sixteenth") or the label ("1/16").
func ParseResolution(s string) (Resolution, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, row := range resolutionTable {
		if s == row.name || s == strings.ToLower(row.label) {
			return Resolution(i), nil
		}
	}
	return DefaultResolution, errors.Errorf("unknown resolution %q", s)
}

// MarshalText stores resolutions by name so saved files survive reordering
func (r Resolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errors.Errorf("invalid resolution %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	v, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// StepsPerMeasure is the function form of Resolution.StepsPerMeasure
func StepsPerMeasure(r Resolution) int {
	return r.StepsPerMeasure()
}

// stepEpsilon absorbs float error on triplet grids (e.g. 1/6 beat * 6).
const stepEpsilon = 1e-9

// BeatToStep converts a beat position to the step it falls in at resolution r:
// floor(beat / beatsPerStep).
func BeatToStep(beat float64, r Resolution) int {
	return int(math.Floor(beat*float64(r.StepsPerMeasure())/BeatsPerMeasure + stepEpsilon))
}

// StepToBeat is the inverse of BeatToStep: the beat where step starts.
func StepToBeat(step int, r Resolution) float64 {
	return float64(step) * BeatsPerMeasure / float64(r.StepsPerMeasure())
}

// RemapStep moves a step index from one grid to another. Onto a finer grid
// the start beat rounds up, onto a coarser one it rounds down, so going fine
// and back lands on the original step.
func RemapStep(step int, from, to Resolution) int {
	fromSPM, toSPM := from.StepsPerMeasure(), to.StepsPerMeasure()
	if toSPM > fromSPM {
		return (step*toSPM + fromSPM - 1) / fromSPM
	}
	return step * toSPM / fromSPM
}
