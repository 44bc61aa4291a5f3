// Package playback renders a song: it walks the pattern sequence step by step,
// starts and stops voices and feeds step automation to the dispatcher.
package playback

import (
	"fmt"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cbegin/efflux-go/internal/automation"
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/factory"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/instrument"
	"github.com/cbegin/efflux-go/internal/module"
	"github.com/cbegin/efflux-go/internal/pitch"
	"github.com/cbegin/efflux-go/internal/sample"
	"github.com/cbegin/efflux-go/internal/song"
	"github.com/cbegin/efflux-go/internal/voice"
)

// EventKind identifies engine lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

// SampleRoot is the note a sample oscillator plays back at its recorded
// rate.
const SampleRoot = "C"

const sampleRootOctave = 4

// Samples resolves sample oscillator paths to decoded buffers.
// *sample.Cache implements it.
type Samples interface {
	Get(path string) (*graph.Buffer, error)
}

type Options struct {
	Loop         bool
	OnEvent      func(EventKind)
	Capabilities factory.Capabilities
	Config       config.Config
	// Router replaces module.ApplyRouting for every module set.
	Router module.Router
	// Samples loads sample oscillators; nil decodes WAV files from disk.
	Samples Samples
	// SampleDir resolves relative sample paths.
	SampleDir string
	// ReleaseTailFrames is rendered after the last step before
	// EventPlaybackEnded fires (0 = 0.1s).
	ReleaseTailFrames int
}

type track struct {
	inst    *instrument.Instrument
	modules *module.Set
	voices  []voice.List
}

type channelState struct {
	track int
	list  voice.List
}

type Engine struct {
	song       *song.Song
	ctx        *graph.Context
	factory    *factory.Factory
	dispatcher *automation.Dispatcher
	master     *graph.Gain
	samples    Samples
	sampleDir  string
	tracks     []track
	channels   []channelState
	seq        []int

	loop     bool
	onEvent  func(EventKind)
	pos      int
	step     int
	nextTime float64
	// nextFrame is the frame the next step fires on
	nextFrame int64

	ended        bool
	tailFrames   int
	tailLeft     int
	finished     bool
	masterVolume float64
}

// New prepares s for rendering at sampleRate. s is validated first and every
// sample an instrument refers to is loaded up front.
func New(s *song.Song, sampleRate int, opts Options) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var ctx *graph.Context
	if opts.Capabilities.Standards {
		ctx = graph.NewContext(sampleRate)
	} else {
		ctx = graph.NewLegacyContext(sampleRate)
	}
	var fopts []factory.Option
	if opts.Router != nil {
		fopts = append(fopts, factory.WithRouter(opts.Router))
	}

	e := &Engine{
		song:         s,
		ctx:          ctx,
		factory:      factory.New(factory.Detect(ctx), cfg, fopts...),
		dispatcher:   automation.New(cfg, opts.Router),
		samples:      opts.Samples,
		sampleDir:    opts.SampleDir,
		seq:          s.Sequence(),
		loop:         opts.Loop,
		onEvent:      opts.OnEvent,
		tailFrames:   opts.ReleaseTailFrames,
		masterVolume: 1,
	}
	if e.samples == nil {
		e.samples = sample.NewCache()
	}
	if e.tailFrames <= 0 {
		e.tailFrames = int(ctx.SampleRate() / 10)
	}
	e.master = e.factory.Adapter().CreateGain(ctx)

	for i := range s.Instruments {
		inst := &s.Instruments[i]
		for _, osc := range inst.Oscillators {
			if !osc.Enabled || osc.Waveform != instrument.WaveformSample {
				continue
			}
			if _, err := e.loadSample(osc.Sample); err != nil {
				return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("instrument %q", inst.Name)))
			}
		}
		e.tracks = append(e.tracks, track{
			inst:    inst,
			modules: e.factory.CreateModuleSet(ctx, *inst, e.master),
		})
	}
	return e, nil
}

func (e *Engine) loadSample(path string) (*graph.Buffer, error) {
	if e.sampleDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(e.sampleDir, path)
	}
	return e.samples.Get(path)
}

func (e *Engine) SampleRate() int { return int(e.ctx.SampleRate()) }

// CurrentTime is the playback position in seconds.
func (e *Engine) CurrentTime() float64 { return e.ctx.CurrentTime() }

// Finished reports whether playback has ended and its release tail has been
// rendered.
func (e *Engine) Finished() bool { return e.finished }

// SetMasterVolume scales the mixed output.
func (e *Engine) SetMasterVolume(v float64) {
	if v < 0 {
		v = 0
	}
	e.masterVolume = v
	e.master.Gain.SetValue(v)
}

func (e *Engine) MasterVolume() float64 { return e.masterVolume }

// ActiveVoiceCount returns the number of voices still sounding.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.tracks {
		n += voice.Count(e.tracks[i].voices)
	}
	return n
}

// Modules returns the module set of instrument i.
func (e *Engine) Modules(i int) *module.Set {
	if i < 0 || i >= len(e.tracks) {
		return nil
	}
	return e.tracks[i].modules
}

// Process renders interleaved stereo frames into dst.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		e.dispatchDue()
		out := e.ctx.Render(e.master)
		dst[f*2] = float32(out.L)
		dst[f*2+1] = float32(out.R)

		if e.ended && !e.finished {
			if e.tailLeft <= 0 {
				e.finished = true
				if e.onEvent != nil {
					e.onEvent(EventPlaybackEnded)
				}
			} else {
				e.tailLeft--
			}
		}
	}
}

// dispatchDue fires every step whose time has been reached.
func (e *Engine) dispatchDue() {
	for !e.ended && e.ctx.Frame() >= e.nextFrame {
		if e.pos >= len(e.seq) {
			if !e.loop || len(e.seq) == 0 {
				e.end()
				return
			}
			e.pos = 0
			if e.onEvent != nil {
				e.onEvent(EventLoopCompleted)
			}
		}
		e.fireStep()
	}
}

func (e *Engine) fireStep() {
	p := &e.song.Patterns[e.seq[e.pos]]
	t := e.nextTime

	for i := range e.tracks {
		voice.Process(e.tracks[i].voices, func(v *voice.Voice) { v.Settle(t) })
	}
	for ch, steps := range p.Channels {
		if e.step < len(steps) {
			e.applyEvent(ch, steps[e.step], t, e.song.StepDuration(p))
		}
	}

	e.nextTime += e.song.StepDuration(p)
	e.nextFrame = e.ctx.FrameOf(e.nextTime)
	e.step++
	if e.step >= p.Steps {
		e.step = 0
		e.pos++
	}
}

func (e *Engine) applyEvent(ch int, ev *song.Event, t, stepDuration float64) {
	if ev == nil {
		return
	}
	for len(e.channels) <= ch {
		e.channels = append(e.channels, channelState{})
	}
	switch ev.Action {
	case song.ActionNoteOn:
		e.releaseChannel(ch, t)
		e.noteOn(ch, ev, t)
	case song.ActionNoteOff:
		e.releaseChannel(ch, t)
	}
	if ev.MP == nil || ev.Instrument >= len(e.tracks) {
		return
	}
	tr := &e.tracks[ev.Instrument]
	e.dispatcher.Apply(automation.Event{
		Module:   automation.Module(ev.MP.Module),
		Value:    ev.MP.Value,
		Glide:    ev.MP.Glide,
		Duration: stepDuration,
	}, tr.modules, tr.inst, tr.voices, t, e.master)
}

func (e *Engine) noteOn(ch int, ev *song.Event, t float64) {
	tr := &e.tracks[ev.Instrument]
	base, err := pitch.Frequency(ev.Note, ev.Octave)
	if err != nil {
		return
	}
	adapter := e.factory.Adapter()
	var list voice.List
	for _, osc := range tr.inst.Oscillators {
		if !osc.Enabled {
			continue
		}
		freq := pitch.Transpose(base, osc.Octave, 0)
		v := &voice.Voice{Gain: adapter.CreateGain(e.ctx)}
		v.Gain.Gain.SetValue(osc.Volume)

		if wt, ok := osc.WaveType(); ok {
			o := e.ctx.CreateOscillator()
			o.Type = wt
			o.Frequency.SetValue(freq)
			o.Detune.SetValue(osc.Detune)
			v.Generator = o
			v.Frequency = freq
		} else {
			buf, err := e.loadSample(osc.Sample)
			if err != nil {
				continue
			}
			root, _ := pitch.Frequency(SampleRoot, sampleRootOctave)
			src := e.ctx.CreateBufferSource()
			src.Buffer = buf
			src.PlaybackRate.SetValue(pitch.Transpose(freq, 0, osc.Detune) / root)
			v.Generator = src
		}
		v.Generator.Connect(v.Gain)
		v.Gain.Connect(tr.modules.Input)
		if err := adapter.Start(v.Generator, t); err != nil {
			continue
		}
		list = append(list, v)
	}
	if len(list) == 0 {
		return
	}
	tr.voices = append(tr.voices, list)
	e.channels[ch] = channelState{track: ev.Instrument, list: list}
}

// releaseChannel stops the voices the last note on ch started.
func (e *Engine) releaseChannel(ch int, t float64) {
	cs := e.channels[ch]
	if len(cs.list) == 0 {
		return
	}
	e.stopList(cs.track, cs.list, t)
	e.channels[ch] = channelState{}
}

func (e *Engine) stopList(trackIdx int, list voice.List, t float64) {
	adapter := e.factory.Adapter()
	for _, v := range list {
		adapter.Stop(v.Generator, t)
		v.Gain.Disconnect()
	}
	tr := &e.tracks[trackIdx]
	for i, l := range tr.voices {
		if len(l) > 0 && l[0] == list[0] {
			tr.voices = append(tr.voices[:i], tr.voices[i+1:]...)
			break
		}
	}
}

// end stops every voice and starts the release tail.
func (e *Engine) end() {
	for ch := range e.channels {
		e.releaseChannel(ch, e.nextTime)
	}
	e.ended = true
	e.tailLeft = e.tailFrames
}

// Reset rewinds to the first step, silencing every voice.
func (e *Engine) Reset() {
	for ch := range e.channels {
		e.releaseChannel(ch, e.ctx.CurrentTime())
	}
	e.pos, e.step = 0, 0
	e.nextTime = e.ctx.CurrentTime()
	e.nextFrame = e.ctx.Frame()
	e.ended, e.finished = false, false
}
