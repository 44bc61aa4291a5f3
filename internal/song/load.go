package song

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/cbegin/efflux-go/internal/pitch"
)

var supported = mustConstraint(SupportedVersions)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Load decodes and validates a song document.
func Load(r io.Reader) (*Song, error) {
	var s Song
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode song", "The song file is not valid JSON."),
			ftag.With(ftag.InvalidArgument))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadFile(path string) (*Song, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := ftag.Internal
		if os.IsNotExist(err) {
			kind = ftag.NotFound
		}
		return nil, fault.Wrap(err,
			fmsg.WithDesc("open song", fmt.Sprintf("Could not open %s.", path)),
			ftag.With(kind))
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	return s, nil
}

// Save writes s as indented JSON, stamping the current format version.
func (s *Song) Save(w io.Writer) error {
	s.Meta.Version = FormatVersion
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fault.Wrap(err, fmsg.With("encode song"))
	}
	return nil
}

// Validate checks the format version and that every step refers to existing
// instruments and valid notes. Automation module names are not checked:
// playback ignores names it does not know.
func (s *Song) Validate() error {
	v, err := semver.NewVersion(s.Meta.Version)
	if err != nil {
		return invalid(fmt.Sprintf("song version %q is not a semantic version", s.Meta.Version))
	}
	if !supported.Check(v) {
		return invalid(fmt.Sprintf("song version %s is outside the supported range %s", v, SupportedVersions))
	}
	if s.Meta.Tempo <= 0 {
		return invalid(fmt.Sprintf("tempo must be positive, got %v", s.Meta.Tempo))
	}
	for i, pi := range s.Order {
		if pi < 0 || pi >= len(s.Patterns) {
			return invalid(fmt.Sprintf("order entry %d refers to missing pattern %d", i, pi))
		}
	}
	for pi, p := range s.Patterns {
		if p.Steps <= 0 {
			return invalid(fmt.Sprintf("pattern %d: steps must be positive", pi))
		}
		for ci, ch := range p.Channels {
			if len(ch) != p.Steps {
				return invalid(fmt.Sprintf("pattern %d channel %d: %d steps, want %d", pi, ci, len(ch), p.Steps))
			}
			for si, ev := range ch {
				if err := s.validateEvent(ev); err != nil {
					return fault.Wrap(err, fmsg.With(fmt.Sprintf("pattern %d channel %d step %d", pi, ci, si)))
				}
			}
		}
	}
	return nil
}

func (s *Song) validateEvent(ev *Event) error {
	if ev == nil {
		return nil
	}
	if ev.Instrument < 0 || ev.Instrument >= len(s.Instruments) {
		return invalid(fmt.Sprintf("instrument %d does not exist", ev.Instrument))
	}
	switch ev.Action {
	case ActionNone, ActionNoteOff:
	case ActionNoteOn:
		if _, err := pitch.Frequency(ev.Note, ev.Octave); err != nil {
			return invalid(err.Error())
		}
	default:
		return invalid(fmt.Sprintf("unknown action %d", ev.Action))
	}
	return nil
}

func invalid(msg string) error {
	return fault.New(msg, ftag.With(ftag.InvalidArgument))
}
