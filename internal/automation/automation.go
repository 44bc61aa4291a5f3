// Package automation applies module parameter changes recorded on pattern
// steps to an instrument's live modules and voices during playback.
package automation

import (
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/instrument"
	"github.com/cbegin/efflux-go/internal/module"
	"github.com/cbegin/efflux-go/internal/voice"
)

// Module names an automatable parameter. Names are case-sensitive.
type Module string

const (
	Volume           Module = "volume"
	PanLeft          Module = "panLeft"
	PanRight         Module = "panRight"
	PitchUp          Module = "pitchUp"
	PitchDown        Module = "pitchDown"
	FilterEnabled    Module = "filterEnabled"
	FilterLFOEnabled Module = "filterLFOEnabled"
	FilterFreq       Module = "filterFreq"
	FilterQ          Module = "filterQ"
	FilterLFOSpeed   Module = "filterLFOSpeed"
	FilterLFODepth   Module = "filterLFODepth"
	DelayEnabled     Module = "delayEnabled"
	DelayTime        Module = "delayTime"
	DelayFeedback    Module = "delayFeedback"
	DelayCutoff      Module = "delayCutoff"
	DelayOffset      Module = "delayOffset"
)

// Modules lists every automatable parameter.
var Modules = []Module{
	Volume, PanLeft, PanRight, PitchUp, PitchDown,
	FilterEnabled, FilterLFOEnabled, FilterFreq, FilterQ, FilterLFOSpeed, FilterLFODepth,
	DelayEnabled, DelayTime, DelayFeedback, DelayCutoff, DelayOffset,
}

// Valid reports whether m is a known parameter name.
func (m Module) Valid() bool {
	for _, k := range Modules {
		if k == m {
			return true
		}
	}
	return false
}

// Event is a single automation change. Value is in [0, 100]; Duration is the
// length in seconds of the step the event sits on and bounds a glide.
type Event struct {
	Module   Module
	Value    float64
	Glide    bool
	Duration float64
}

// Dispatcher resolves automation events to parameter changes.
type Dispatcher struct {
	cfg   config.Config
	route module.Router
}

// New returns a dispatcher scaling values against cfg. route is applied after
// a module is toggled; nil selects module.ApplyRouting.
func New(cfg config.Config, route module.Router) *Dispatcher {
	if route == nil {
		route = module.ApplyRouting
	}
	return &Dispatcher{cfg: cfg, route: route}
}

// Apply schedules the change described by ev at startTime. voices are the
// voices currently sounding for inst; output is where the instrument's module
// chain ends. Unknown module names are ignored.
func (d *Dispatcher) Apply(ev Event, modules *module.Set, inst *instrument.Instrument, voices []voice.List, startTime float64, output graph.Node) {
	switch ev.Module {
	case Volume:
		applyVolume(ev, voices, startTime)

	case PanLeft, PanRight:
		applyPanning(ev, modules, startTime)

	case PitchUp, PitchDown:
		applyPitchShift(ev, voices, startTime)

	case FilterEnabled:
		modules.Filter.FilterEnabled = ev.Value >= 50
		d.route(modules, output)

	case FilterLFOEnabled:
		t := module.FilterTypeFor(ev.Value)
		inst.Filter.LFOType = t
		modules.Filter.SetLFOType(t)
		d.route(modules, output)

	case FilterFreq, FilterQ, FilterLFOSpeed, FilterLFODepth:
		d.applyFilter(ev, modules, startTime)

	case DelayEnabled:
		modules.Delay.DelayEnabled = ev.Value >= 50
		d.route(modules, output)

	case DelayTime, DelayFeedback, DelayCutoff, DelayOffset:
		d.applyDelay(ev, modules)
	}
}

func applyVolume(ev Event, voices []voice.List, startTime float64) {
	target := ev.Value / 100
	voice.Process(voices, func(v *voice.Voice) {
		ScheduleParameterChange(v.Gain.Gain, target, startTime, ev.Duration, ev.Glide, &v.GainRamp)
	})
}

func applyPanning(ev Event, modules *module.Set, startTime float64) {
	target := ev.Value / 100
	if ev.Module == PanLeft {
		target = -target
	}
	ScheduleParameterChange(modules.Panner.Pan, target, startTime, ev.Duration, ev.Glide, nil)
}

func applyPitchShift(ev Event, voices []voice.List, startTime float64) {
	up := ev.Module == PitchUp
	amount := ev.Value / 100

	voice.Process(voices, func(v *voice.Voice) {
		switch g := v.Generator.(type) {
		case *graph.Oscillator:
			ScheduleParameterChange(g.Frequency, PitchTarget(v.Frequency, ev.Value, up), startTime, ev.Duration, ev.Glide, &v.PitchRamp)
		case *graph.BufferSource:
			target := g.PlaybackRate.Value() - amount
			if up {
				target = g.PlaybackRate.Value() + amount
			}
			ScheduleParameterChange(g.PlaybackRate, target, startTime, ev.Duration, ev.Glide, &v.PitchRamp)
		}
	})
}

// PitchTarget returns the oscillator frequency a pitch event moves a voice
// with base frequency f to. Upward bends add the full scaled delta, downward
// bends subtract half of it.
func PitchTarget(f, value float64, up bool) float64 {
	delta := (f + f/1200) * (value / 100) // 1200 cents to the octave
	if up {
		return f + delta
	}
	return f - delta/2
}

func (d *Dispatcher) applyFilter(ev Event, modules *module.Set, startTime float64) {
	m := modules.Filter
	target := ev.Value / 100

	switch ev.Module {
	case FilterFreq:
		ScheduleParameterChange(m.Filter.Frequency, target*d.cfg.MaxFilterFreq, startTime, ev.Duration, ev.Glide, nil)
	case FilterQ:
		ScheduleParameterChange(m.Filter.Q, target*d.cfg.MaxFilterQ, startTime, ev.Duration, ev.Glide, nil)
	case FilterLFOSpeed:
		ScheduleParameterChange(m.LFO.Frequency, target*d.cfg.MaxFilterLFOSpeed, startTime, ev.Duration, ev.Glide, nil)
	case FilterLFODepth:
		depth := target * d.cfg.MaxFilterLFODepth / 100 * m.Filter.Frequency.Value()
		ScheduleParameterChange(m.LFOAmp.Gain, depth, startTime, ev.Duration, ev.Glide, nil)
	}
}

// delay settings are plain fields on the delay node, so they change at once
// regardless of glide
func (d *Dispatcher) applyDelay(ev Event, modules *module.Set) {
	m := modules.Delay.Delay
	target := ev.Value / 100

	switch ev.Module {
	case DelayTime:
		m.Delay = target
	case DelayFeedback:
		m.Feedback = target
	case DelayCutoff:
		m.Cutoff = target * d.cfg.MaxDelayCutoff
	case DelayOffset:
		m.Offset = d.cfg.MinDelayOffset + target
	}
}
