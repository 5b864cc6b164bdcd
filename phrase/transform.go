package phrase

// stepMap holds one pitch map per step, index = step.
type stepMap []map[int]*Trigger

func newStepMap(numSteps int) stepMap {
	m := make(stepMap, numSteps)
	for i := range m {
		m[i] = make(map[int]*Trigger)
	}
	return m
}

// expandResolution moves every step onto a finer grid. Step s lands on
// ceil(s*newSPM/oldSPM); distinct old steps never share a new step.
func expandResolution(m stepMap, from, to Resolution, length int) stepMap {
	out := newStepMap(length * to.StepsPerMeasure())
	for oldStep, pitches := range m {
		newStep := RemapStep(oldStep, from, to)
		for pitch, t := range pitches {
			t.Step = newStep
			out[newStep][pitch] = t
		}
	}
	return out
}

// contractResolution moves every step onto a coarser grid, rounding down.
// Collisions are resolved per pitch: when several old steps land on the
// same new step with the same pitch, the lowest old step keeps the slot and
// the rest are dropped. Different pitches on one new step all survive.
func contractResolution(m stepMap, from, to Resolution, length int) stepMap {
	out := newStepMap(length * to.StepsPerMeasure())
	// ascending old step order makes the first occupant win
	for oldStep, pitches := range m {
		newStep := RemapStep(oldStep, from, to)
		if newStep >= len(out) {
			continue
		}
		for pitch, t := range pitches {
			if _, taken := out[newStep][pitch]; taken {
				continue
			}
			t.Step = newStep
			out[newStep][pitch] = t
		}
	}
	return out
}

// updateLength grows or truncates the map to numSteps. Truncated steps and
// their triggers are gone for good.
func updateLength(m stepMap, numSteps int) stepMap {
	if numSteps <= len(m) {
		for i := numSteps; i < len(m); i++ {
			m[i] = nil
		}
		return m[:numSteps:numSteps]
	}
	for len(m) < numSteps {
		m = append(m, make(map[int]*Trigger))
	}
	return m
}
