package graph

import "math"

type FilterType string

const (
	Lowpass  FilterType = "lowpass"
	Highpass FilterType = "highpass"
	Bandpass FilterType = "bandpass"
	Notch    FilterType = "notch"
)

// BiquadFilter is a second-order IIR filter in Direct Form I with per-channel
// state. Coefficients are recomputed only when frequency, Q or type change.
type BiquadFilter struct {
	nodeCore
	Type      FilterType
	Frequency *Param
	Q         *Param

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64

	lastType FilterType
	lastFreq float64
	lastQ    float64
}

func newBiquadFilter(ctx *Context) *BiquadFilter {
	f := &BiquadFilter{
		Type:      Lowpass,
		Frequency: newParam(ctx, 350),
		Q:         newParam(ctx, 1),
		lastFreq:  -1,
	}
	f.init(ctx, f, f)
	return f
}

func (f *BiquadFilter) process(in Frame, frame int64) Frame {
	freq := f.Frequency.Sample(frame)
	q := f.Q.Sample(frame)
	if freq != f.lastFreq || q != f.lastQ || f.Type != f.lastType {
		f.design(freq, q)
	}
	return Frame{L: f.tick(0, in.L), R: f.tick(1, in.R)}
}

func (f *BiquadFilter) tick(ch int, x0 float64) float64 {
	y0 := f.b0*x0 + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
	f.x2[ch] = f.x1[ch]
	f.x1[ch] = x0
	f.y2[ch] = f.y1[ch]
	f.y1[ch] = y0
	return y0
}

func (f *BiquadFilter) design(freq, q float64) {
	f.lastFreq, f.lastQ, f.lastType = freq, q, f.Type

	nyquist := f.ctx.sampleRate / 2
	if freq < 10 {
		freq = 10
	} else if freq > nyquist*0.99 {
		freq = nyquist * 0.99
	}
	if q < 0.0001 {
		q = 0.0001
	}
	omega := 2 * math.Pi * freq / f.ctx.sampleRate
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)

	var b0, b1, b2 float64
	switch f.Type {
	case Highpass:
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosW
		b2 = 1
	default:
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
	}
	a0 := 1 + alpha
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = -2 * cosW / a0
	f.a2 = (1 - alpha) / a0
}

// Reset clears the filter history.
func (f *BiquadFilter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
}
