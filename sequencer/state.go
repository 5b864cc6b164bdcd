package sequencer

import (
	"time"

	"go-phrase/phrase"
)

const (
	NumTracks   = 8
	NumPatterns = phrase.NumBanks * phrase.PatternsPerBank

	// PPQ is ticks per quarter note. A 4/4 measure is 384 ticks, which every
	// resolution's step count divides evenly.
	PPQ             = 96
	TicksPerMeasure = PPQ * phrase.BeatsPerMeasure

	MinTempo = 20
	MaxTempo = 300
)

// State is the single source of truth for transport and track state.
// The Manager owns it and guards it with its mutex.
type State struct {
	Tempo       int
	Playing     bool
	Tick        int64     // playhead, updated by the manager
	T0          time.Time // wall clock time of tick 0
	ProjectName string
	Tracks      [NumTracks]*TrackState
}

// TrackState holds all state for a single track
type TrackState struct {
	Name    string
	Channel uint8 // MIDI output channel (1-16)
	Muted   bool
	Solo    bool
	Phrases *PhraseState
}

// PhraseState holds the 64 phrase slots of a track plus playback and edit position
type PhraseState struct {
	Phrases [NumPatterns]*phrase.StepPhrase

	// Playback
	Pattern int // playing slot
	Next    int // queued slot, -1 if none

	// UI
	Editing     int
	CursorStep  int
	CursorPitch int

	Polyphonic bool
	Recording  bool // runtime only
}

// Defaults seed new phrases
type Defaults struct {
	Resolution phrase.Resolution
	Length     int
	Polyphonic bool
}

// DefaultDefaults is one measure of sixteenths, monophonic
var DefaultDefaults = Defaults{Resolution: phrase.DefaultResolution, Length: 1}

// NewState creates a state with defaults
func NewState(d Defaults) *State {
	s := &State{
		Tempo: 120,
	}
	for i := 0; i < NumTracks; i++ {
		s.Tracks[i] = &TrackState{
			Channel: uint8(i + 1),
			Phrases: NewPhraseState(d),
		}
	}
	return s
}

// NewPhraseState creates 64 empty phrases at the given resolution and length
func NewPhraseState(d Defaults) *PhraseState {
	ps := &PhraseState{
		Next:        -1,
		CursorPitch: 60,
		Polyphonic:  d.Polyphonic,
	}
	for i := range ps.Phrases {
		p := phrase.New(i/phrase.PatternsPerBank, i%phrase.PatternsPerBank)
		p.SetResolution(d.Resolution)
		p.SetLength(d.Length)
		ps.Phrases[i] = p
	}
	ps.Phrases[0].SetActive(true)
	return ps
}

// Slot converts bank/index to a pattern slot
func Slot(bank, index int) int {
	return bank*phrase.PatternsPerBank + index
}

// audible is false for muted tracks, and for unsoloed ones while anything is soloed
func (s *State) audible(track int) bool {
	ts := s.Tracks[track]
	if ts.Muted {
		return false
	}
	for _, other := range s.Tracks {
		if other.Solo {
			return ts.Solo
		}
	}
	return true
}

func (s *State) ticksPerSecond() float64 {
	return float64(s.Tempo) / 60 * PPQ
}

// TimeToTick converts wall clock time to a tick
func (s *State) TimeToTick(t time.Time) int64 {
	if t.Before(s.T0) {
		return 0
	}
	return int64(t.Sub(s.T0).Seconds() * s.ticksPerSecond())
}

// TickToTime converts a tick to wall clock time
func (s *State) TickToTime(tick int64) time.Time {
	return s.T0.Add(time.Duration(float64(tick) / s.ticksPerSecond() * float64(time.Second)))
}

// TicksPerStep is the tick length of one step at r
func TicksPerStep(r phrase.Resolution) int64 {
	return int64(TicksPerMeasure / r.StepsPerMeasure())
}

// BeatsToTicks converts a beat length (gate) to ticks, rounding to nearest
func BeatsToTicks(beats float64) int64 {
	return int64(beats*PPQ + 0.5)
}
