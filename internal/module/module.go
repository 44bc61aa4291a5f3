// Package module holds the per-instrument effect modules and the routing that
// chains them between an instrument's voices and its output.
package module

import (
	"github.com/cbegin/efflux-go/internal/graph"
)

// LFOType names the waveform modulating a filter; LFOOff disables modulation.
type LFOType string

const (
	LFOOff      LFOType = "off"
	LFOSine     LFOType = "sine"
	LFOSquare   LFOType = "square"
	LFOSawtooth LFOType = "sawtooth"
	LFOTriangle LFOType = "triangle"
)

// FilterTypes is the ordered list automation values are mapped onto.
var FilterTypes = []LFOType{LFOOff, LFOSine, LFOSquare, LFOSawtooth, LFOTriangle}

// Filter is a biquad filter whose cutoff can be swept by an LFO. LFOAmp
// scales the LFO output and feeds the filter's frequency parameter.
type Filter struct {
	Filter        *graph.BiquadFilter
	LFO           *graph.Oscillator
	LFOAmp        *graph.Gain
	LFOEnabled    bool
	FilterEnabled bool
}

// SetLFOType selects the LFO waveform, connecting the LFO to its amp when a
// waveform is chosen and disconnecting it for LFOOff.
func (f *Filter) SetLFOType(t LFOType) {
	if t != LFOOff {
		f.LFO.Type = graph.WaveType(t)
		if !f.LFOEnabled {
			f.LFO.Connect(f.LFOAmp)
			f.LFOEnabled = true
		}
		return
	}
	if f.LFOEnabled {
		f.LFOEnabled = false
		f.LFO.Disconnect()
	}
}

type Delay struct {
	Delay        *graph.FeedbackDelay
	DelayEnabled bool
}

// Set is the live module bundle of one instrument. Voices connect to Input.
type Set struct {
	Input  *graph.Gain
	Filter *Filter
	Delay  *Delay
	Panner *graph.StereoPanner
}

// RangeToIndex maps value in [0, 100] proportionally onto an index of a list
// with n entries.
func RangeToIndex(n int, value float64) int {
	if n <= 0 {
		return -1
	}
	i := int(value / 100 * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// FilterTypeFor returns the filter type value selects.
func FilterTypeFor(value float64) LFOType {
	return FilterTypes[RangeToIndex(len(FilterTypes), value)]
}
