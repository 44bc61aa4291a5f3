// Package pitch converts tracker note names to frequencies.
package pitch

import (
	"fmt"
	"math"
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Frequency returns the equal-tempered frequency of note in octave, tuned to
// A4 = 440 Hz.
func Frequency(note string, octave int) (float64, error) {
	idx := -1
	for i, n := range noteNames {
		if n == note {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("pitch: unknown note %q", note)
	}
	if octave < 0 || octave > 8 {
		return 0, fmt.Errorf("pitch: octave %d out of range 0..8", octave)
	}
	n := octave*12 + idx
	return 440 * math.Pow(2, float64(n-57)/12), nil
}

// Transpose shifts freq by the given number of octaves and cents.
func Transpose(freq float64, octaves int, cents float64) float64 {
	return freq * math.Pow(2, float64(octaves)+cents/1200)
}
