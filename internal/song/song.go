// Package song defines the song document: instruments, patterns of steps per
// channel, and the order patterns play in.
package song

import (
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/instrument"
)

// FormatVersion is written into saved songs.
const FormatVersion = "2.1.0"

// SupportedVersions is the range of song format versions Load accepts.
const SupportedVersions = ">= 1.0.0, < 3.0.0"

// Step actions.
const (
	ActionNone    = 0
	ActionNoteOn  = 1
	ActionNoteOff = 2
)

// Param is a module automation change attached to a step.
type Param struct {
	Module string  `json:"module"`
	Value  float64 `json:"value"`
	Glide  bool    `json:"glide,omitempty"`
}

// Event is the content of one step of one channel.
type Event struct {
	Action     int    `json:"action"`
	Instrument int    `json:"instrument"`
	Note       string `json:"note,omitempty"`
	Octave     int    `json:"octave,omitempty"`
	MP         *Param `json:"mp,omitempty"`
}

// Empty reports whether the step carries neither a note action nor
// automation.
func (e *Event) Empty() bool {
	return e == nil || (e.Action == ActionNone && e.MP == nil)
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.MP != nil {
		mp := *e.MP
		c.MP = &mp
	}
	return &c
}

// Pattern is a grid of Steps rows per channel. A nil entry is an empty step.
type Pattern struct {
	Steps    int        `json:"steps"`
	Channels [][]*Event `json:"channels"`
}

// NewPattern returns an empty pattern.
func NewPattern(channels, steps int) Pattern {
	p := Pattern{Steps: steps, Channels: make([][]*Event, channels)}
	for i := range p.Channels {
		p.Channels[i] = make([]*Event, steps)
	}
	return p
}

type Meta struct {
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Version string  `json:"version"`
	Tempo   float64 `json:"tempo"`
}

type Song struct {
	Meta        Meta                    `json:"meta"`
	Instruments []instrument.Instrument `json:"instruments"`
	Patterns    []Pattern               `json:"patterns"`
	Order       []int                   `json:"order,omitempty"`
}

// New returns a song with one empty two-channel pattern and a default
// instrument per channel.
func New(title string, cfg config.Config) *Song {
	return &Song{
		Meta: Meta{Title: title, Version: FormatVersion, Tempo: 120},
		Instruments: []instrument.Instrument{
			instrument.New("Instrument 1", cfg),
			instrument.New("Instrument 2", cfg),
		},
		Patterns: []Pattern{NewPattern(2, 16)},
	}
}

// StepDuration returns the length in seconds of one step of p: a pattern
// spans one measure of four beats regardless of its resolution.
func (s *Song) StepDuration(p *Pattern) float64 {
	if s.Meta.Tempo <= 0 || p.Steps <= 0 {
		return 0
	}
	return 60 / s.Meta.Tempo * 4 / float64(p.Steps)
}

// Sequence returns the pattern indices in play order. Without an explicit
// order every pattern plays once in sequence.
func (s *Song) Sequence() []int {
	if len(s.Order) > 0 {
		return s.Order
	}
	seq := make([]int, len(s.Patterns))
	for i := range seq {
		seq[i] = i
	}
	return seq
}
