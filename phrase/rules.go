package phrase

import "github.com/pkg/errors"

// MaxMeasures is the longest pattern the engine accepts
const MaxMeasures = 8

var (
	ErrInvalidLength     = errors.New("phrase: length must be a power of two between 1 and 8 measures")
	ErrInvalidResolution = errors.New("phrase: unknown resolution")
	ErrStepOutOfRange    = errors.New("phrase: step outside the phrase")
)

// IsValidLength reports whether n measures is a legal pattern length (1, 2, 4, 8).
func IsValidLength(n int) bool {
	return n >= 1 && n <= MaxMeasures && n&(n-1) == 0
}

// Lengths lists the legal pattern lengths in ascending order
func Lengths() []int {
	var out []int
	for n := 1; n <= MaxMeasures; n <<= 1 {
		out = append(out, n)
	}
	return out
}

// checkLength, checkResolution and checkStep are the only input checks the
// phrase makes.
// The Set* and Trigger* methods drop their errors; the Change* methods and
// SetNoteData return them.

func checkLength(n int) error {
	if !IsValidLength(n) {
		return errors.Wrapf(ErrInvalidLength, "got %d", n)
	}
	return nil
}

func checkResolution(r Resolution) error {
	if !r.Valid() {
		return errors.Wrapf(ErrInvalidResolution, "got %d", int(r))
	}
	return nil
}

func checkStep(step, numSteps int) error {
	if step < 0 || step >= numSteps {
		return errors.Wrapf(ErrStepOutOfRange, "step %d of %d", step, numSteps)
	}
	return nil
}
