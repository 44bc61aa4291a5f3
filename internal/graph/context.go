// Package graph is a pull-based software audio graph. Nodes are rendered one
// stereo frame at a time and their parameters follow a timeline of scheduled
// set and linear ramp events, mirroring the scheduling model of browser audio
// graphs.
package graph

import "errors"

// ErrInvalidState is returned by generators that are started twice or stopped
// when not running.
var ErrInvalidState = errors.New("graph: invalid generator state")

// Context owns the sample clock shared by every node created from it.
type Context struct {
	sampleRate float64
	frame      int64
	legacy     bool
}

// NewContext returns a context that exposes the standard node constructors.
func NewContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	return &Context{sampleRate: float64(sampleRate)}
}

// NewLegacyContext returns a context that reports the older node API flavor.
// Both constructor families work on it; Standards reports false so callers
// that negotiate capabilities pick the legacy names.
func NewLegacyContext(sampleRate int) *Context {
	c := NewContext(sampleRate)
	c.legacy = true
	return c
}

func (c *Context) SampleRate() float64 { return c.sampleRate }

// Standards reports whether the context implements the standard API flavor.
func (c *Context) Standards() bool { return !c.legacy }

// Frame returns the index of the next frame to be rendered.
func (c *Context) Frame() int64 { return c.frame }

// CurrentTime is the time in seconds of the next frame to be rendered.
func (c *Context) CurrentTime() float64 { return c.TimeOf(c.frame) }

func (c *Context) TimeOf(frame int64) float64 {
	return float64(frame) / c.sampleRate
}

// FrameOf returns the first frame at or after t.
func (c *Context) FrameOf(t float64) int64 {
	f := t * c.sampleRate
	i := int64(f)
	if float64(i) < f {
		i++
	}
	return i
}

// Render pulls one frame through dst and advances the clock.
func (c *Context) Render(dst Node) Frame {
	out := dst.Render(c.frame)
	c.frame++
	return out
}

// Skip advances the clock without rendering.
func (c *Context) Skip(frames int64) {
	if frames > 0 {
		c.frame += frames
	}
}

func (c *Context) CreateGain() *Gain {
	return newGain(c)
}

func (c *Context) CreateDelay(maxDelaySeconds float64) *Delay {
	return newDelay(c, maxDelaySeconds)
}

func (c *Context) CreateStereoPanner() *StereoPanner {
	return newStereoPanner(c)
}

func (c *Context) CreateBiquadFilter() *BiquadFilter {
	return newBiquadFilter(c)
}

func (c *Context) CreateOscillator() *Oscillator {
	return newOscillator(c)
}

func (c *Context) CreateBufferSource() *BufferSource {
	return newBufferSource(c)
}

func (c *Context) CreateFeedbackDelay(maxDelaySeconds float64) *FeedbackDelay {
	return newFeedbackDelay(c, maxDelaySeconds)
}
