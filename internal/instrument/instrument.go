package instrument

import (
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/module"
)

// Oscillator waveforms an instrument can use. WaveformSample plays the
// oscillator's Sample file instead of a periodic waveform.
const (
	WaveformSine     = "SINE"
	WaveformSquare   = "SQUARE"
	WaveformSawtooth = "SAW"
	WaveformTriangle = "TRIANGLE"
	WaveformSample   = "SAMPLE"
)

type Oscillator struct {
	Enabled  bool    `json:"enabled"`
	Waveform string  `json:"waveform"`
	Volume   float64 `json:"volume"`
	Detune   float64 `json:"detune"` // cents
	Octave   int     `json:"octaveShift"`
	Sample   string  `json:"sample,omitempty"`
}

// WaveType maps the waveform to the oscillator node type. ok is false for
// sample oscillators.
func (o Oscillator) WaveType() (graph.WaveType, bool) {
	switch o.Waveform {
	case WaveformSine:
		return graph.Sine, true
	case WaveformSquare:
		return graph.Square, true
	case WaveformSawtooth:
		return graph.Sawtooth, true
	case WaveformTriangle:
		return graph.Triangle, true
	}
	return "", false
}

type FilterProps struct {
	Enabled   bool           `json:"enabled"`
	Frequency float64        `json:"frequency"`
	Q         float64        `json:"q"`
	Speed     float64        `json:"speed"`
	Depth     float64        `json:"depth"`
	Type      string         `json:"type"`
	LFOType   module.LFOType `json:"lfoType"`
}

type DelayProps struct {
	Enabled  bool    `json:"enabled"`
	Type     int     `json:"type"`
	Time     float64 `json:"time"`
	Feedback float64 `json:"feedback"`
	Cutoff   float64 `json:"cutoff"`
	Offset   float64 `json:"offset"`
}

type Instrument struct {
	Name        string       `json:"name"`
	Volume      float64      `json:"volume"`
	Panning     float64      `json:"panning"`
	Oscillators []Oscillator `json:"oscillators"`
	Filter      FilterProps  `json:"filter"`
	Delay       DelayProps   `json:"delay"`
}

// New returns an instrument with a single sine oscillator and the module
// defaults from cfg.
func New(name string, cfg config.Config) Instrument {
	return Instrument{
		Name:   name,
		Volume: 1,
		Oscillators: []Oscillator{
			{Enabled: true, Waveform: WaveformSine, Volume: 0.7},
			{Waveform: WaveformSine, Volume: 0.7},
			{Waveform: WaveformSine, Volume: 0.7},
		},
		Filter: FilterProps{
			Frequency: cfg.DefaultFilterFreq,
			Q:         cfg.DefaultFilterQ,
			Speed:     cfg.DefaultFilterLFOSpeed,
			Depth:     cfg.DefaultFilterLFODepth,
			Type:      string(graph.Lowpass),
			LFOType:   module.LFOOff,
		},
		Delay: DelayProps{
			Type:     cfg.DefaultDelayType,
			Time:     cfg.DefaultDelayTime,
			Feedback: cfg.DefaultDelayFeedback,
			Cutoff:   cfg.DefaultDelayCutoff,
			Offset:   cfg.DefaultDelayOffset,
		},
	}
}
