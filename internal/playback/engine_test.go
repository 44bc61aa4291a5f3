package playback

import (
	"errors"
	"math"
	"testing"

	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/factory"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/instrument"
	"github.com/cbegin/efflux-go/internal/module"
	"github.com/cbegin/efflux-go/internal/song"
	"github.com/cbegin/efflux-go/internal/voice"
)

const testRate = 1000

// 120 bpm, 16 steps: 0.125s per step
const stepFrames = 125

type fakeSamples struct {
	buf   *graph.Buffer
	calls int
}

func (f *fakeSamples) Get(path string) (*graph.Buffer, error) {
	f.calls++
	if f.buf == nil {
		return nil, errors.New("missing " + path)
	}
	return f.buf, nil
}

func newSong() *song.Song {
	return song.New("test", config.Default())
}

func render(e *Engine, frames int) []float32 {
	buf := make([]float32, frames*2)
	e.Process(buf)
	return buf
}

func newEngine(t *testing.T, s *song.Song, opts Options) *Engine {
	t.Helper()
	opts.Capabilities = factory.Capabilities{Standards: true}
	if opts.ReleaseTailFrames == 0 {
		opts.ReleaseTailFrames = 10
	}
	e, err := New(s, testRate, opts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestNoteOnStartsVoicePerEnabledOscillator(t *testing.T) {
	s := newSong()
	s.Instruments[0].Oscillators[1].Enabled = true
	s.Instruments[0].Oscillators[1].Waveform = instrument.WaveformSquare
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "A", Octave: 4}

	e := newEngine(t, s, Options{})
	out := render(e, 50)

	if got := e.ActiveVoiceCount(); got != 2 {
		t.Fatalf("voices = %d, want 2", got)
	}
	v := e.tracks[0].voices[0][0]
	if v.Frequency != 440 {
		t.Fatalf("frequency = %v, want 440", v.Frequency)
	}
	if osc := e.tracks[0].voices[0][1].Generator.(*graph.Oscillator); osc.Type != graph.Square {
		t.Fatalf("second voice type = %v, want square", osc.Type)
	}
	silent := true
	for _, x := range out {
		if x != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Fatalf("expected audible output after note on")
	}
}

func TestOctaveShift(t *testing.T) {
	s := newSong()
	s.Instruments[0].Oscillators[0].Octave = -1
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "A", Octave: 4}
	e := newEngine(t, s, Options{})
	render(e, 1)
	if got := e.tracks[0].voices[0][0].Frequency; got != 220 {
		t.Fatalf("frequency = %v, want 220", got)
	}
}

func TestNoteOffStopsVoices(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	s.Patterns[0].Channels[0][4] = &song.Event{Action: song.ActionNoteOff}
	e := newEngine(t, s, Options{})

	render(e, 4*stepFrames)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("voices before note off = %d, want 1", got)
	}
	v := e.tracks[0].voices[0][0]
	render(e, 1)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("voices after note off = %d, want 0", got)
	}
	if !v.Generator.Ended(0.5) {
		t.Fatalf("generator should be stopped at the note off step")
	}
}

func TestNoteOnReplacesChannelNote(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	s.Patterns[0].Channels[0][1] = &song.Event{Action: song.ActionNoteOn, Note: "E", Octave: 3}
	s.Patterns[0].Channels[1][0] = &song.Event{Action: song.ActionNoteOn, Instrument: 1, Note: "G", Octave: 3}
	e := newEngine(t, s, Options{})

	render(e, stepFrames+1)
	if got := e.ActiveVoiceCount(); got != 2 {
		t.Fatalf("voices = %d, want 2", got)
	}
	if got := voice.Count(e.tracks[0].voices); got != 1 {
		t.Fatalf("instrument 0 voices = %d, want 1", got)
	}
}

func TestAutomationGlidesAcrossStep(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	s.Patterns[0].Channels[0][2] = &song.Event{MP: &song.Param{Module: "volume", Value: 20, Glide: true}}
	e := newEngine(t, s, Options{})

	render(e, 2*stepFrames+1)
	v := e.tracks[0].voices[0][0]
	g := v.Gain.Gain
	start := 0.25
	if got := g.ValueAt(start); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("gain at glide start = %v, want 0.7", got)
	}
	if got := g.ValueAt(start + 0.125); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("gain at glide end = %v, want 0.2", got)
	}
	if v.GainRamp != voice.Ramping {
		t.Fatalf("ramp state = %v, want ramping", v.GainRamp)
	}

	// the next step settles the completed ramp
	render(e, stepFrames)
	if v.GainRamp != voice.Idle {
		t.Fatalf("ramp state = %v, want idle after the glide", v.GainRamp)
	}
}

func TestConsecutiveGlidesContinueWithoutJump(t *testing.T) {
	s := newSong()
	ch := s.Patterns[0].Channels[0]
	ch[0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	ch[2] = &song.Event{MP: &song.Param{Module: "volume", Value: 20, Glide: true}}
	ch[3] = &song.Event{MP: &song.Param{Module: "volume", Value: 10, Glide: true}}
	pan := s.Patterns[0].Channels[1]
	pan[2] = &song.Event{MP: &song.Param{Module: "panLeft", Value: 100, Glide: true}}
	pan[3] = &song.Event{MP: &song.Param{Module: "panLeft", Value: 50, Glide: true}}
	e := newEngine(t, s, Options{})

	render(e, 3*stepFrames+1)
	g := e.tracks[0].voices[0][0].Gain.Gain
	boundary := 0.375
	if got := g.ValueAt(boundary); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("gain at second glide start = %v, want 0.2", got)
	}
	if got := g.ValueAt(boundary + 0.125); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("gain at second glide end = %v, want 0.1", got)
	}
	p := e.tracks[0].modules.Panner.Pan
	if got := p.ValueAt(boundary); math.Abs(got+1) > 1e-9 {
		t.Fatalf("pan at second glide start = %v, want -1", got)
	}
	if got := p.ValueAt(boundary + 0.125); math.Abs(got+0.5) > 1e-9 {
		t.Fatalf("pan at second glide end = %v, want -0.5", got)
	}
}

func TestUnknownAutomationModuleIsIgnored(t *testing.T) {
	build := func(mp *song.Param) *song.Song {
		s := newSong()
		s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
		s.Patterns[0].Channels[0][1] = &song.Event{MP: mp}
		return s
	}
	plain := newEngine(t, build(nil), Options{})
	withUnknown := newEngine(t, build(&song.Param{Module: "vibrato", Value: 80, Glide: true}), Options{})

	want := render(plain, 3*stepFrames)
	got := render(withUnknown, 3*stepFrames)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAutomationOnNoteOnStepAppliesToNewVoice(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3,
		MP: &song.Param{Module: "volume", Value: 50}}
	e := newEngine(t, s, Options{})
	render(e, 1)
	if got := e.tracks[0].voices[0][0].Gain.Gain.ValueAt(0); got != 0.5 {
		t.Fatalf("gain = %v, want 0.5", got)
	}
}

func TestToggleAutomationRoutesThroughInjectedRouter(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[1][3] = &song.Event{Instrument: 1, MP: &song.Param{Module: "delayEnabled", Value: 80}}
	routes := 0
	e := newEngine(t, s, Options{Router: func(set *module.Set, out graph.Node) {
		routes++
		module.ApplyRouting(set, out)
	}})
	// filter and delay configuration route once each per instrument
	if routes != 4 {
		t.Fatalf("routes after setup = %d, want 4", routes)
	}
	render(e, 3*stepFrames+1)
	if routes != 5 {
		t.Fatalf("routes = %d, want 5", routes)
	}
	if !e.Modules(1).Delay.DelayEnabled || e.Modules(0).Delay.DelayEnabled {
		t.Fatalf("delay should be enabled on instrument 1 only")
	}
}

func TestPlaybackEndsAfterTail(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][15] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	var events []EventKind
	e := newEngine(t, s, Options{OnEvent: func(k EventKind) { events = append(events, k) }})

	render(e, 16*stepFrames)
	if e.Finished() || len(events) != 0 {
		t.Fatalf("finished early: %v", events)
	}
	render(e, 20)
	if !e.Finished() {
		t.Fatalf("expected playback to finish")
	}
	if len(events) != 1 || events[0] != EventPlaybackEnded {
		t.Fatalf("events = %v, want [ended]", events)
	}
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("voices left sounding after the end")
	}
}

func TestLoopRestartsSequence(t *testing.T) {
	s := newSong()
	s.Patterns = append(s.Patterns, song.NewPattern(2, 8))
	s.Order = []int{1, 0}
	var events []EventKind
	e := newEngine(t, s, Options{Loop: true, OnEvent: func(k EventKind) { events = append(events, k) }})

	// pattern 1 has 8 steps of 0.25s, pattern 0 has 16 of 0.125s
	render(e, 4000+1)
	if len(events) != 1 || events[0] != EventLoopCompleted {
		t.Fatalf("events = %v, want [loop]", events)
	}
	if e.Finished() {
		t.Fatalf("looping playback never finishes")
	}
	if e.pos != 0 || e.step != 1 {
		t.Fatalf("position = %d/%d, want 0/1", e.pos, e.step)
	}
}

func TestSampleOscillator(t *testing.T) {
	s := newSong()
	s.Instruments[0].Oscillators[0] = instrument.Oscillator{
		Enabled: true, Waveform: instrument.WaveformSample, Volume: 1, Sample: "kick.wav",
	}
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 5}
	samples := &fakeSamples{buf: &graph.Buffer{SampleRate: testRate, Channels: [][]float64{{0.5, 0.5, 0.5}}}}
	e := newEngine(t, s, Options{Samples: samples, SampleDir: "/songs"})

	render(e, 1)
	v := e.tracks[0].voices[0][0]
	src, ok := v.Generator.(*graph.BufferSource)
	if !ok {
		t.Fatalf("generator = %T, want *graph.BufferSource", v.Generator)
	}
	if got := src.PlaybackRate.ValueAt(0); math.Abs(got-2) > 1e-9 {
		t.Fatalf("playback rate = %v, want 2", got)
	}
	if samples.calls < 2 {
		t.Fatalf("samples loaded %d times", samples.calls)
	}
}

func TestMissingSampleFailsNew(t *testing.T) {
	s := newSong()
	s.Instruments[1].Oscillators[0] = instrument.Oscillator{
		Enabled: true, Waveform: instrument.WaveformSample, Sample: "gone.wav",
	}
	_, err := New(s, testRate, Options{Samples: &fakeSamples{}})
	if err == nil {
		t.Fatalf("expected error for missing sample")
	}
}

func TestInvalidSongFailsNew(t *testing.T) {
	s := newSong()
	s.Meta.Tempo = 0
	if _, err := New(s, testRate, Options{}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLegacyCapabilities(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	e, err := New(s, testRate, Options{Capabilities: factory.Capabilities{Standards: false}})
	if err != nil {
		t.Fatal(err)
	}
	if factory.Detect(e.ctx).Standards {
		t.Fatalf("expected legacy context")
	}
	render(e, 1)
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("legacy adapter did not start the voice")
	}
}

func TestMasterVolume(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	e := newEngine(t, s, Options{})
	e.SetMasterVolume(0)
	for _, x := range render(e, 20) {
		if x != 0 {
			t.Fatalf("muted output = %v", x)
		}
	}
	e.SetMasterVolume(-1)
	if e.MasterVolume() != 0 {
		t.Fatalf("negative volume should clamp to 0")
	}
}

func TestReset(t *testing.T) {
	s := newSong()
	s.Patterns[0].Channels[0][0] = &song.Event{Action: song.ActionNoteOn, Note: "C", Octave: 3}
	e := newEngine(t, s, Options{})
	render(e, 3*stepFrames)
	e.Reset()
	if e.ActiveVoiceCount() != 0 || e.step != 0 {
		t.Fatalf("reset left voices or position")
	}
	render(e, 1)
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("first step should fire again after reset")
	}
}
