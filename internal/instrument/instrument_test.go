package instrument

import (
	"testing"

	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/module"
)

func TestNewUsesConfigDefaults(t *testing.T) {
	cfg := config.Default()
	inst := New("lead", cfg)
	if len(inst.Oscillators) != 3 {
		t.Fatalf("oscillators = %d, want 3", len(inst.Oscillators))
	}
	enabled := 0
	for _, o := range inst.Oscillators {
		if o.Enabled {
			enabled++
		}
	}
	if enabled != 1 || !inst.Oscillators[0].Enabled {
		t.Fatalf("only the first oscillator should start enabled")
	}
	if inst.Filter.Frequency != cfg.DefaultFilterFreq || inst.Filter.LFOType != module.LFOOff {
		t.Fatalf("filter = %+v", inst.Filter)
	}
	if inst.Delay.Feedback != cfg.DefaultDelayFeedback || inst.Delay.Offset != cfg.DefaultDelayOffset {
		t.Fatalf("delay = %+v", inst.Delay)
	}
}

func TestWaveType(t *testing.T) {
	cases := []struct {
		waveform string
		want     graph.WaveType
		ok       bool
	}{
		{WaveformSine, graph.Sine, true},
		{WaveformSquare, graph.Square, true},
		{WaveformSawtooth, graph.Sawtooth, true},
		{WaveformTriangle, graph.Triangle, true},
		{WaveformSample, "", false},
		{"NOISE", "", false},
	}
	for _, tc := range cases {
		got, ok := Oscillator{Waveform: tc.waveform}.WaveType()
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: got %q %v, want %q %v", tc.waveform, got, ok, tc.want, tc.ok)
		}
	}
}
