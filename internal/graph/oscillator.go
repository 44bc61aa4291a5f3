package graph

import "math"

type WaveType string

const (
	Sine     WaveType = "sine"
	Square   WaveType = "square"
	Sawtooth WaveType = "sawtooth"
	Triangle WaveType = "triangle"
)

// Generator is a source node that produces sound between its start and stop
// times.
type Generator interface {
	Node
	Start(t float64) error
	Stop(t float64) error
	NoteOn(t float64) error
	NoteOff(t float64) error
	// Ended reports whether the generator has stopped for good at t.
	Ended(t float64) bool
}

type lifecycle struct {
	started, stopped bool
	startAt, stopAt  float64
}

func (l *lifecycle) Start(t float64) error {
	if l.started {
		return ErrInvalidState
	}
	l.started = true
	l.startAt = t
	return nil
}

func (l *lifecycle) Stop(t float64) error {
	if !l.started || l.stopped {
		return ErrInvalidState
	}
	l.stopped = true
	l.stopAt = t
	if l.stopAt < l.startAt {
		l.stopAt = l.startAt
	}
	return nil
}

func (l *lifecycle) playing(t float64) bool {
	return l.started && t >= l.startAt && (!l.stopped || t < l.stopAt)
}

func (l *lifecycle) Ended(t float64) bool {
	return l.stopped && t >= l.stopAt
}

// Oscillator produces a periodic waveform at Frequency Hz, offset by Detune
// cents.
type Oscillator struct {
	nodeCore
	lifecycle
	Type      WaveType
	Frequency *Param
	Detune    *Param

	phase float64
}

func newOscillator(ctx *Context) *Oscillator {
	o := &Oscillator{
		Type:      Sine,
		Frequency: newParam(ctx, 440),
		Detune:    newParam(ctx, 0),
	}
	o.init(ctx, o, o)
	return o
}

func (o *Oscillator) process(_ Frame, frame int64) Frame {
	freq := o.Frequency.Sample(frame)
	detune := o.Detune.Sample(frame)
	if !o.playing(o.ctx.TimeOf(frame)) {
		return Frame{}
	}
	if detune != 0 {
		freq *= math.Pow(2, detune/1200)
	}
	v := waveValue(o.Type, o.phase)
	o.phase += freq / o.ctx.sampleRate
	o.phase -= math.Floor(o.phase)
	return Frame{v, v}
}

// waveValue evaluates one cycle of the waveform at phase [0, 1).
func waveValue(w WaveType, phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
