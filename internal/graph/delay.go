package graph

import "math"

// delayLine is a ring buffer read with linear interpolation.
type delayLine struct {
	buf []float64
	pos int
}

func newDelayLine(size int) delayLine {
	if size < 2 {
		size = 2
	}
	return delayLine{buf: make([]float64, size)}
}

func (d *delayLine) write(x float64) {
	d.buf[d.pos] = x
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

// read returns the sample written delay writes before the most recent one,
// interpolating between neighbours for fractional delays.
func (d *delayLine) read(delay float64) float64 {
	n := len(d.buf)
	if delay < 0 {
		delay = 0
	} else if delay > float64(n-2) {
		delay = float64(n - 2)
	}
	k := int(delay)
	frac := delay - float64(k)
	a := d.buf[((d.pos-1-k)%n+n)%n]
	b := d.buf[((d.pos-2-k)%n+n)%n]
	return a*(1-frac) + b*frac
}

func (d *delayLine) reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

// Delay outputs its input DelayTime seconds later.
type Delay struct {
	nodeCore
	DelayTime *Param

	lines [2]delayLine
}

func newDelay(ctx *Context, maxDelaySeconds float64) *Delay {
	if maxDelaySeconds <= 0 {
		maxDelaySeconds = 1
	}
	size := int(maxDelaySeconds*ctx.sampleRate) + 2
	d := &Delay{
		DelayTime: newParam(ctx, 0),
		lines:     [2]delayLine{newDelayLine(size), newDelayLine(size)},
	}
	d.init(ctx, d, d)
	return d
}

func (d *Delay) process(in Frame, frame int64) Frame {
	n := d.DelayTime.Sample(frame) * d.ctx.sampleRate
	d.lines[0].write(in.L)
	d.lines[1].write(in.R)
	return Frame{L: d.lines[0].read(n), R: d.lines[1].read(n)}
}

// Feedback delay modes.
const (
	DelayNormal = iota
	DelayInverted
	DelayPingPong
)

// FeedbackDelay is a stereo echo. Its settings are plain fields read every
// frame rather than scheduled parameters:
//
//	Delay    echo time in seconds
//	Feedback amount of the echo fed back, 0..1
//	Cutoff   lowpass cutoff in Hz applied to the feedback path
//	Offset   seconds added to the right channel's echo time
//
// The output carries the dry input plus the echoes.
type FeedbackDelay struct {
	nodeCore
	Type     int
	Delay    float64
	Feedback float64
	Cutoff   float64
	Offset   float64

	lines [2]delayLine
	lp    [2]float64
}

func newFeedbackDelay(ctx *Context, maxDelaySeconds float64) *FeedbackDelay {
	if maxDelaySeconds <= 0 {
		maxDelaySeconds = 2
	}
	size := int(maxDelaySeconds*ctx.sampleRate) + 2
	d := &FeedbackDelay{
		Delay:    0.5,
		Feedback: 0.42,
		Cutoff:   1200,
		lines:    [2]delayLine{newDelayLine(size), newDelayLine(size)},
	}
	d.init(ctx, d, d)
	return d
}

func (d *FeedbackDelay) process(in Frame, _ int64) Frame {
	sr := d.ctx.sampleRate
	right := d.Delay + d.Offset
	if right < 0 {
		right = 0
	}
	wetL := d.lines[0].read(d.Delay*sr - 1)
	wetR := d.lines[1].read(right*sr - 1)

	a := 1.0
	if d.Cutoff > 0 && d.Cutoff < sr/2 {
		a = 1 - math.Exp(-2*math.Pi*d.Cutoff/sr)
	}
	d.lp[0] += a * (wetL - d.lp[0])
	d.lp[1] += a * (wetR - d.lp[1])

	fb := d.Feedback
	if fb > 0.98 {
		fb = 0.98
	}
	fbL, fbR := d.lp[0]*fb, d.lp[1]*fb
	switch d.Type {
	case DelayInverted:
		d.lines[0].write(in.L - fbL)
		d.lines[1].write(in.R - fbR)
	case DelayPingPong:
		d.lines[0].write(in.L + fbR)
		d.lines[1].write(in.R + fbL)
	default:
		d.lines[0].write(in.L + fbL)
		d.lines[1].write(in.R + fbR)
	}
	return Frame{L: in.L + wetL, R: in.R + wetR}
}

// Reset clears the echo buffers.
func (d *FeedbackDelay) Reset() {
	d.lines[0].reset()
	d.lines[1].reset()
	d.lp = [2]float64{}
}
