package graph

import "math"

// Buffer holds decoded sample data, one slice per channel.
type Buffer struct {
	SampleRate float64
	Channels   [][]float64
}

// Len returns the number of frames in the buffer.
func (b *Buffer) Len() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *Buffer) at(i int) Frame {
	l := b.Channels[0][i]
	if len(b.Channels) > 1 {
		return Frame{l, b.Channels[1][i]}
	}
	return Frame{l, l}
}

// BufferSource plays a Buffer once or looped at PlaybackRate.
type BufferSource struct {
	nodeCore
	lifecycle
	Buffer       *Buffer
	PlaybackRate *Param
	Loop         bool

	pos float64
}

func newBufferSource(ctx *Context) *BufferSource {
	s := &BufferSource{PlaybackRate: newParam(ctx, 1)}
	s.init(ctx, s, s)
	return s
}

func (s *BufferSource) process(_ Frame, frame int64) Frame {
	rate := s.PlaybackRate.Sample(frame)
	n := s.Buffer.Len()
	if n == 0 || !s.playing(s.ctx.TimeOf(frame)) {
		return Frame{}
	}
	if s.pos >= float64(n) {
		if !s.Loop {
			return Frame{}
		}
		s.pos = math.Mod(s.pos, float64(n))
	}
	if s.pos < 0 {
		s.pos = 0
	}
	i := int(s.pos)
	frac := s.pos - float64(i)
	next := i + 1
	if next >= n {
		if s.Loop {
			next = 0
		} else {
			next = i
		}
	}
	a, b := s.Buffer.at(i), s.Buffer.at(next)
	out := Frame{
		L: a.L + (b.L-a.L)*frac,
		R: a.R + (b.R-a.R)*frac,
	}
	s.pos += rate * s.Buffer.SampleRate / s.ctx.sampleRate
	return out
}

// Ended also reports true once a non-looping buffer has played through.
func (s *BufferSource) Ended(t float64) bool {
	if s.lifecycle.Ended(t) {
		return true
	}
	return s.started && !s.Loop && s.pos >= float64(s.Buffer.Len())
}
