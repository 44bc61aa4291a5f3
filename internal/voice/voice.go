package voice

import "github.com/cbegin/efflux-go/internal/graph"

// RampState tracks whether an automated parameter is in a glide.
type RampState int

const (
	Idle RampState = iota
	Ramping
)

func (s RampState) String() string {
	if s == Ramping {
		return "ramping"
	}
	return "idle"
}

// Voice is one sounding generator of an instrument. Generator is either a
// *graph.Oscillator or a *graph.BufferSource and feeds Gain.
type Voice struct {
	Generator graph.Generator
	Gain      *graph.Gain
	Frequency float64 // base frequency in Hz; zero for sample voices

	GainRamp  RampState
	PitchRamp RampState
}

// List holds the voices started by a single note event, one per enabled
// oscillator of the instrument.
type List []*Voice

// Process calls fn once for every voice in lists.
func Process(lists []List, fn func(v *Voice)) {
	for _, l := range lists {
		for _, v := range l {
			if v != nil {
				fn(v)
			}
		}
	}
}

// Count returns the number of voices in lists.
func Count(lists []List) int {
	n := 0
	Process(lists, func(*Voice) { n++ })
	return n
}

// PitchParam returns the parameter pitch automation acts on: the oscillator
// frequency or the sample playback rate.
func (v *Voice) PitchParam() *graph.Param {
	switch g := v.Generator.(type) {
	case *graph.Oscillator:
		return g.Frequency
	case *graph.BufferSource:
		return g.PlaybackRate
	}
	return nil
}

// Settle returns ramp states to Idle once their ramps have completed by t.
func (v *Voice) Settle(t float64) {
	if v.GainRamp == Ramping && (v.Gain == nil || !v.Gain.Gain.Ramping(t)) {
		v.GainRamp = Idle
	}
	if v.PitchRamp == Ramping {
		if p := v.PitchParam(); p == nil || !p.Ramping(t) {
			v.PitchRamp = Idle
		}
	}
}
